// Package tree provides scikit-learn style decision tree estimators on
// gonum matrices, built on the multi-target tree builder.
package tree

import (
	"fmt"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
	"github.com/YuminosukeSato/mtboost/pkg/log"
	dtree "github.com/YuminosukeSato/mtboost/tree"
)

// params holds the hyperparameters shared by the tree estimators.
type params struct {
	criterion           string
	maxDepth            int
	minSamplesSplit     int
	minSamplesLeaf      int
	minImpurityDecrease float64
	nJobs               int
	logger              log.Logger
}

// Option configures a tree estimator.
type Option func(*params)

// WithCriterion sets the split quality measure: "gini" or "entropy" for
// classifiers, "squared_error" for regressors.
func WithCriterion(criterion string) Option {
	return func(p *params) { p.criterion = criterion }
}

// WithMaxDepth limits the tree depth; 0 grows until the leaves are pure.
func WithMaxDepth(depth int) Option {
	return func(p *params) { p.maxDepth = depth }
}

// WithMinSamplesSplit sets the minimum number of samples required to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(p *params) { p.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum number of samples in each child of a split.
func WithMinSamplesLeaf(n int) Option {
	return func(p *params) { p.minSamplesLeaf = n }
}

// WithMinImpurityDecrease sets the gain a split must exceed.
func WithMinImpurityDecrease(v float64) Option {
	return func(p *params) { p.minImpurityDecrease = v }
}

// WithNJobs bounds the split search goroutines; 0 uses every CPU.
func WithNJobs(n int) Option {
	return func(p *params) { p.nJobs = n }
}

// WithLogger sets the estimator logger.
func WithLogger(l log.Logger) Option {
	return func(p *params) {
		if l != nil {
			p.logger = l
		}
	}
}

func defaultParams(criterion, component string) params {
	return params{
		criterion:       criterion,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		logger:          log.GetLoggerWithName(component),
	}
}

// config translates the hyperparameters into a builder configuration.
func (p *params) config(leafKind dtree.LeafKind) (dtree.Config, error) {
	metric, err := dtree.ParseSplitMetric(p.criterion)
	if err != nil {
		return dtree.Config{}, err
	}
	cfg := dtree.Config{
		MaxDepth:        p.maxDepth,
		MinSamplesSplit: p.minSamplesSplit,
		MinSamplesLeaf:  p.minSamplesLeaf,
		MinGain:         p.minImpurityDecrease,
		Metric:          metric,
		LeafKind:        leafKind,
		NumWorkers:      p.nJobs,
	}
	if cfg.MaxDepth < 0 {
		return dtree.Config{}, errors.NewValidationError("max_depth", "must be >= 0", p.maxDepth)
	}
	return cfg, cfg.Validate()
}

// GetParams returns the hyperparameters under their scikit-learn names.
func (p *params) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":             p.criterion,
		"max_depth":             p.maxDepth,
		"min_samples_split":     p.minSamplesSplit,
		"min_samples_leaf":      p.minSamplesLeaf,
		"min_impurity_decrease": p.minImpurityDecrease,
		"n_jobs":                p.nJobs,
	}
}

// SetParams updates hyperparameters by their scikit-learn names. Unknown
// names and wrongly typed values are validation errors; nothing is changed
// unless every entry is valid.
func (p *params) SetParams(values map[string]interface{}) error {
	next := *p
	for key, value := range values {
		var ok bool
		switch key {
		case "criterion":
			next.criterion, ok = value.(string)
		case "max_depth":
			next.maxDepth, ok = value.(int)
		case "min_samples_split":
			next.minSamplesSplit, ok = value.(int)
		case "min_samples_leaf":
			next.minSamplesLeaf, ok = value.(int)
		case "min_impurity_decrease":
			next.minImpurityDecrease, ok = value.(float64)
		case "n_jobs":
			next.nJobs, ok = value.(int)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	*p = next
	return nil
}
