// Package ensemble provides a scikit-learn style gradient boosting regressor
// for multi-output targets.
package ensemble

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mtboost/core/dataset"
	"github.com/YuminosukeSato/mtboost/core/model"
	gbt "github.com/YuminosukeSato/mtboost/ensemble"
	"github.com/YuminosukeSato/mtboost/metrics"
	"github.com/YuminosukeSato/mtboost/pkg/errors"
	"github.com/YuminosukeSato/mtboost/pkg/log"
	"github.com/YuminosukeSato/mtboost/tree"
)

const modelName = "GradientBoostingRegressor"

// GradientBoostingRegressor wraps the boosted ensemble behind Fit/Predict on
// gonum matrices.
type GradientBoostingRegressor struct {
	state *model.StateManager

	nEstimators     int
	learningRate    float64
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	nJobs           int
	callbacks       []gbt.Callback
	logger          log.Logger

	ensemble *gbt.GradientBoostedEnsemble
}

// Option configures a GradientBoostingRegressor.
type Option func(*GradientBoostingRegressor)

// WithNEstimators sets the number of boosting rounds.
func WithNEstimators(n int) Option {
	return func(g *GradientBoostingRegressor) { g.nEstimators = n }
}

// WithLearningRate sets the shrinkage applied to every tree.
func WithLearningRate(lr float64) Option {
	return func(g *GradientBoostingRegressor) { g.learningRate = lr }
}

// WithMaxDepth limits the depth of every tree; 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(g *GradientBoostingRegressor) { g.maxDepth = depth }
}

// WithMinSamplesSplit sets the minimum number of samples required to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(g *GradientBoostingRegressor) { g.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum number of samples in each child of a split.
func WithMinSamplesLeaf(n int) Option {
	return func(g *GradientBoostingRegressor) { g.minSamplesLeaf = n }
}

// WithNJobs bounds training and prediction goroutines; 0 uses every CPU.
func WithNJobs(n int) Option {
	return func(g *GradientBoostingRegressor) { g.nJobs = n }
}

// WithCallbacks adds training callbacks.
func WithCallbacks(cbs ...gbt.Callback) Option {
	return func(g *GradientBoostingRegressor) { g.callbacks = append(g.callbacks, cbs...) }
}

// WithLogger sets the logger used for training progress.
func WithLogger(l log.Logger) Option {
	return func(g *GradientBoostingRegressor) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGradientBoostingRegressor uses the scikit-learn defaults: 100
// estimators, learning rate 0.1, depth 3.
func NewGradientBoostingRegressor(opts ...Option) *GradientBoostingRegressor {
	g := &GradientBoostingRegressor{
		state:           model.NewStateManager(),
		nEstimators:     100,
		learningRate:    0.1,
		maxDepth:        3,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		logger:          log.GetLoggerWithName("sklearn.ensemble"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fit trains the ensemble on X (N×F) and Y (N×T).
func (g *GradientBoostingRegressor) Fit(X, Y mat.Matrix) error {
	return g.FitContext(context.Background(), X, Y)
}

// FitContext is Fit with cancellation.
func (g *GradientBoostingRegressor) FitContext(ctx context.Context, X, Y mat.Matrix) (err error) {
	defer errors.Recover(&err, modelName+".Fit")

	data, err := dataset.FromMatrix(X, Y)
	if err != nil {
		return err
	}
	cfg := tree.DefaultConfig()
	cfg.MaxDepth = g.maxDepth
	cfg.MinSamplesSplit = g.minSamplesSplit
	cfg.MinSamplesLeaf = g.minSamplesLeaf

	e, err := gbt.Train(ctx, data, cfg, g.nEstimators, g.learningRate,
		gbt.WithLogger(g.logger),
		gbt.WithNumWorkers(g.nJobs),
		gbt.WithCallbacks(g.callbacks...),
	)
	if err != nil {
		g.state.Reset()
		g.ensemble = nil
		return errors.NewModelError(modelName+".Fit", "training", err)
	}

	g.ensemble = e
	g.state.SetFitted(data.NumFeatures(), data.NumTargets(), data.NumRows())
	return nil
}

// Predict returns an N×T matrix of predictions.
func (g *GradientBoostingRegressor) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, modelName+".Predict")

	rows, cols := X.Dims()
	if err := g.state.CheckFeatures(modelName, "Predict", cols); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, errors.NewValueError(modelName+".Predict", "empty input")
	}
	predictions, err := g.ensemble.PredictRows(context.Background(), dataset.FeaturesFromMatrix(X))
	if err != nil {
		return nil, err
	}
	return dataset.ToDense(predictions), nil
}

// Score returns R² averaged uniformly over the targets.
func (g *GradientBoostingRegressor) Score(X, Y mat.Matrix) (float64, error) {
	pred, err := g.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(Y, pred)
}

// Ensemble returns the trained ensemble, or nil before Fit.
func (g *GradientBoostingRegressor) Ensemble() *gbt.GradientBoostedEnsemble { return g.ensemble }

// GetParams returns the hyperparameters under their scikit-learn names.
func (g *GradientBoostingRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      g.nEstimators,
		"learning_rate":     g.learningRate,
		"max_depth":         g.maxDepth,
		"min_samples_split": g.minSamplesSplit,
		"min_samples_leaf":  g.minSamplesLeaf,
		"n_jobs":            g.nJobs,
	}
}

var (
	_ model.Regressor       = (*GradientBoostingRegressor)(nil)
	_ model.ParameterGetter = (*GradientBoostingRegressor)(nil)
)
