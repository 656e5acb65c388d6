package tree

import (
	"context"
	"fmt"

	"github.com/YuminosukeSato/mtboost/core/dataset"
	"github.com/YuminosukeSato/mtboost/pkg/errors"
	"github.com/YuminosukeSato/mtboost/pkg/log"
)

// LeafKind selects which Leaf variant the builder emits.
type LeafKind int

const (
	// RegressionLeafKind keeps each leaf's training view for lazy statistics.
	RegressionLeafKind LeafKind = iota
	// GradBoostLeafKind stores the mean label vector of the leaf's rows.
	GradBoostLeafKind
	// AdaptiveMultiClassLeafKind stores the majority class and its fraction.
	AdaptiveMultiClassLeafKind
)

func (k LeafKind) String() string {
	switch k {
	case RegressionLeafKind:
		return "regression"
	case GradBoostLeafKind:
		return "grad_boost"
	case AdaptiveMultiClassLeafKind:
		return "adaptive_multi_class"
	default:
		return "unknown"
	}
}

// Config holds the tree growing parameters.
type Config struct {
	// MaxDepth limits the number of splits on any path; <= 0 means unlimited.
	MaxDepth int
	// MinSamplesSplit is the smallest subset that may still be split.
	MinSamplesSplit int
	// MinSamplesLeaf is the smallest allowed child of a split.
	MinSamplesLeaf int
	// MinGain is the gain a split must exceed.
	MinGain  float64
	Metric   SplitMetric
	LeafKind LeafKind
	// NumWorkers bounds split search goroutines; 1 disables parallelism.
	NumWorkers int
}

// DefaultConfig returns the configuration used by gradient boosting.
func DefaultConfig() Config {
	return Config{
		MaxDepth:        6,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Metric:          Variance,
		LeafKind:        GradBoostLeafKind,
	}
}

// Validate checks parameter ranges and metric/leaf compatibility.
func (c Config) Validate() error {
	if c.MinSamplesSplit < 1 {
		return errors.NewValidationError("min_samples_split", "must be >= 1", c.MinSamplesSplit)
	}
	if c.MinSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", c.MinSamplesLeaf)
	}
	if c.MinGain < 0 {
		return errors.NewValidationError("min_gain", "must be >= 0", c.MinGain)
	}
	switch c.Metric {
	case Gini, Entropy, Variance:
	default:
		return errors.NewValidationError("metric", "unknown split metric", int(c.Metric))
	}
	switch c.LeafKind {
	case RegressionLeafKind, GradBoostLeafKind:
	case AdaptiveMultiClassLeafKind:
		if !c.Metric.IsClassification() {
			return errors.NewValidationError("leaf_kind", "adaptive multi-class leaves need a classification metric", c.Metric.String())
		}
	default:
		return errors.NewValidationError("leaf_kind", "unknown leaf kind", int(c.LeafKind))
	}
	return nil
}

// Builder grows trees for one Config.
type Builder struct {
	cfg    Config
	finder *SplitFinder
	logger log.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger used for build summaries.
func WithLogger(l log.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder validates cfg and prepares the split finder.
func NewBuilder(cfg Config, opts ...BuilderOption) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	finder, err := NewSplitFinder(cfg.Metric, WithLeafMinimum(cfg.MinSamplesLeaf), WithWorkers(cfg.NumWorkers))
	if err != nil {
		return nil, err
	}
	b := &Builder{cfg: cfg, finder: finder, logger: log.GetLoggerWithName("tree.builder")}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Config returns the builder's configuration.
func (b *Builder) Config() Config { return b.cfg }

// Build grows a tree over view. numberOfClassesOrTargets is the class count
// for Gini/Entropy and the label vector length for Variance.
func (b *Builder) Build(view dataset.View, numberOfClassesOrTargets int) (*Node, error) {
	if view.Len() == 0 {
		return nil, errors.NewInsufficientDataError("tree.Build", "subset has no rows")
	}
	if numberOfClassesOrTargets < 1 {
		return nil, errors.NewValidationError("number_of_classes_or_targets", "must be >= 1", numberOfClassesOrTargets)
	}
	if err := b.checkLabels(view, numberOfClassesOrTargets); err != nil {
		return nil, err
	}

	root, err := b.build(view, numberOfClassesOrTargets, 0)
	if err != nil {
		return nil, err
	}
	if b.logger.Enabled(context.Background(), log.LevelDebug) {
		b.logger.Debug("tree built",
			log.SamplesKey, view.Len(),
			log.TreeDepthKey, root.Depth(),
			log.TreeLeavesKey, root.NumLeaves(),
		)
	}
	return root, nil
}

func (b *Builder) checkLabels(view dataset.View, k int) error {
	d := view.Dataset()
	if !b.cfg.Metric.IsClassification() {
		if d.NumTargets() != k {
			return errors.NewDimensionError("tree.Build", k, d.NumTargets(), 2)
		}
		return nil
	}
	if d.NumTargets() != 1 {
		return errors.NewDimensionError("tree.Build", 1, d.NumTargets(), 2)
	}
	for _, r := range view.Rows() {
		y := d.Label(r)[0]
		if c := int(y); float64(c) != y || c < 0 || c >= k {
			return errors.NewValueError("tree.Build", fmt.Sprintf("row %d: label %v is not a class in [0, %d)", r, y, k))
		}
	}
	return nil
}

func (b *Builder) build(view dataset.View, k, depth int) (*Node, error) {
	if (b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth) || view.Len() < b.cfg.MinSamplesSplit {
		return b.leaf(view, k)
	}

	best := b.finder.FindBestSplit(view, k)
	if best.Gain <= b.cfg.MinGain {
		return b.leaf(view, k)
	}

	falseView, trueView := view.Partition(best.Question.Matches)
	if falseView.Len() == 0 || trueView.Len() == 0 {
		return b.leaf(view, k)
	}

	left, err := b.build(falseView, k, depth+1)
	if err != nil {
		return nil, err
	}
	right, err := b.build(trueView, k, depth+1)
	if err != nil {
		return nil, err
	}
	return &Node{
		Question: best.Question,
		Gain:     best.Gain,
		Samples:  view.Len(),
		Left:     left,
		Right:    right,
	}, nil
}

func (b *Builder) leaf(view dataset.View, k int) (*Node, error) {
	var (
		leaf Leaf
		err  error
	)
	switch b.cfg.LeafKind {
	case RegressionLeafKind:
		v := view
		leaf = &RegressionLeaf{Data: &v}
	case GradBoostLeafKind:
		leaf, err = MeanOutput(view)
	case AdaptiveMultiClassLeafKind:
		leaf, err = MajorityClass(view, k)
	}
	if err != nil {
		return nil, err
	}
	return &Node{Leaf: leaf, Samples: view.Len()}, nil
}
