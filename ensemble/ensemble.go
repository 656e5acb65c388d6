// Package ensemble implements multi-target gradient boosting over variance
// regression trees.
//
// Each round fits a tree to the residuals (label - prediction) of every
// training row and moves the predictions by learningRate times the mean
// residual vector of the row's leaf. Prediction sums the initial guess and
// every tree's scaled contribution in tree order, so parallel and sequential
// evaluation produce bit-identical results.
package ensemble

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/YuminosukeSato/mtboost/core/dataset"
	"github.com/YuminosukeSato/mtboost/core/parallel"
	"github.com/YuminosukeSato/mtboost/core/vector"
	"github.com/YuminosukeSato/mtboost/metrics"
	"github.com/YuminosukeSato/mtboost/pkg/errors"
	"github.com/YuminosukeSato/mtboost/pkg/log"
	pmetrics "github.com/YuminosukeSato/mtboost/pkg/metrics"
	"github.com/YuminosukeSato/mtboost/tree"
)

const (
	// rowParallelThreshold is the row count below which row loops stay sequential.
	rowParallelThreshold = 1024
	// treeParallelThreshold is the tree count below which Predict stays sequential.
	treeParallelThreshold = 64
)

// GradientBoostedEnsemble is a trained sequence of gradient-boosted trees.
type GradientBoostedEnsemble struct {
	trees        []*tree.Node
	initialGuess []float64
	learningRate float64
	nFeatures    int
	nTargets     int
	numWorkers   int

	evalNames     []string
	evalHistory   map[string][]float64
	bestIteration int

	metrics *pmetrics.TrainingMetrics
}

// Train fits numberOfIterations trees to data. The tree configuration's
// metric and leaf kind are overridden with Variance and GradBoost leaves.
func Train(ctx context.Context, data *dataset.Dataset, treeConfig tree.Config, numberOfIterations int, learningRate float64, opts ...Option) (*GradientBoostedEnsemble, error) {
	o := trainOptions{logger: log.GetLoggerWithName("ensemble")}
	for _, opt := range opts {
		opt(&o)
	}

	if data == nil || data.NumRows() == 0 {
		return nil, errors.NewInsufficientDataError("ensemble.Train", "training dataset has no rows")
	}
	if numberOfIterations < 1 {
		return nil, errors.NewValidationError("number_of_iterations", "must be >= 1", numberOfIterations)
	}
	if !(learningRate > 0) || math.IsInf(learningRate, 0) {
		return nil, errors.NewValidationError("learning_rate", "must be a positive finite number", learningRate)
	}
	seen := make(map[string]bool, len(o.validation))
	for _, vs := range o.validation {
		switch {
		case vs.name == "":
			return nil, errors.NewValidationError("validation_set", "name must not be empty", vs.name)
		case vs.name == TrainingSet:
			return nil, errors.NewValidationError("validation_set", "name is reserved for the training data", vs.name)
		case seen[vs.name]:
			return nil, errors.NewValidationError("validation_set", "duplicate name", vs.name)
		}
		seen[vs.name] = true
		if err := checkCompatible("ensemble.Train", data, vs.data); err != nil {
			return nil, errors.Wrapf(err, "validation set %q", vs.name)
		}
	}

	treeConfig.Metric = tree.Variance
	treeConfig.LeafKind = tree.GradBoostLeafKind
	if treeConfig.NumWorkers == 0 {
		treeConfig.NumWorkers = o.numWorkers
	}
	builder, err := tree.NewBuilder(treeConfig, tree.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	initialGuess, err := vector.Average(data.Labels())
	if err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability("ensemble.Train: initial guess", initialGuess, 0); err != nil {
		return nil, err
	}

	e := &GradientBoostedEnsemble{
		trees:         make([]*tree.Node, 0, numberOfIterations),
		initialGuess:  initialGuess,
		learningRate:  learningRate,
		nFeatures:     data.NumFeatures(),
		nTargets:      data.NumTargets(),
		numWorkers:    o.numWorkers,
		evalNames:     []string{TrainingSet},
		evalHistory:   make(map[string][]float64),
		bestIteration: -1,
		metrics:       o.metrics,
	}
	for _, vs := range o.validation {
		e.evalNames = append(e.evalNames, vs.name)
	}

	predictions := e.initialPredictions(data.NumRows())
	validationPredictions := make([][][]float64, len(o.validation))
	for j, vs := range o.validation {
		validationPredictions[j] = e.initialPredictions(vs.data.NumRows())
	}

	logger := o.logger.With(log.ModelNameKey, "GradientBoostedEnsemble")
	logger.Info("training started",
		log.SamplesKey, data.NumRows(),
		log.FeaturesKey, e.nFeatures,
		log.TargetsKey, e.nTargets,
		log.LearningRateKey, learningRate,
		"iterations", numberOfIterations,
	)

	cbs := NewCallbackList(o.callbacks...)
	trainStart := time.Now()
	for it := 0; it < numberOfIterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "training stopped at iteration %d", it)
		}
		roundStart := time.Now()
		cbs.BeforeIteration(it, e)

		residuals := make([][]float64, data.NumRows())
		for i, label := range data.Labels() {
			if residuals[i], err = vector.Subtract(label, predictions[i]); err != nil {
				return nil, err
			}
		}
		residualData, err := data.WithLabels(residuals)
		if err != nil {
			return nil, err
		}

		root, err := builder.Build(residualData.All(), e.nTargets)
		if err != nil {
			return nil, errors.Wrapf(err, "build tree %d", it)
		}
		if err := e.applyTree(ctx, root, data.Features(), predictions); err != nil {
			return nil, err
		}
		e.trees = append(e.trees, root)

		if err := errors.CheckRows("ensemble.Train", predictions, it); err != nil {
			return nil, err
		}

		results := make(map[string]float64, len(e.evalNames))
		if results[TrainingSet], err = metrics.MultiTargetMSE(data.Labels(), predictions); err != nil {
			return nil, err
		}
		for j, vs := range o.validation {
			if err := e.applyTree(ctx, root, vs.data.Features(), validationPredictions[j]); err != nil {
				return nil, err
			}
			if results[vs.name], err = metrics.MultiTargetMSE(vs.data.Labels(), validationPredictions[j]); err != nil {
				return nil, err
			}
		}
		for _, name := range e.evalNames {
			if err := errors.CheckScalar("ensemble.Train: "+name+" loss", results[name], it); err != nil {
				return nil, err
			}
			e.evalHistory[name] = append(e.evalHistory[name], results[name])
		}

		o.metrics.ObserveRound(time.Since(roundStart), root.Depth(), len(e.trees), results)
		if logger.Enabled(ctx, log.LevelDebug) {
			logger.Debug("boosting round",
				log.IterationKey, it,
				log.LossKey, results[TrainingSet],
				log.TreeDepthKey, root.Depth(),
				log.TreeLeavesKey, root.NumLeaves(),
			)
		}

		if err := cbs.AfterIteration(it, e, e.evalNames, results); err != nil {
			return nil, errors.Wrapf(err, "callback at iteration %d", it)
		}
		if cbs.ShouldStop() {
			break
		}
	}

	if best := cbs.BestIteration(); best >= 0 {
		e.bestIteration = best
		if o.truncateToBest && best+1 < len(e.trees) {
			e.truncate(best + 1)
		}
	}

	logger.Info("training finished",
		log.TreeCountKey, len(e.trees),
		log.LossKey, e.lastLoss(TrainingSet),
		log.BestIterKey, e.bestIteration,
		log.DurationMsKey, time.Since(trainStart).Milliseconds(),
	)
	return e, nil
}

func checkCompatible(op string, train, other *dataset.Dataset) error {
	if other == nil || other.NumRows() == 0 {
		return errors.NewInsufficientDataError(op, "dataset has no rows")
	}
	if other.NumFeatures() != train.NumFeatures() {
		return errors.NewDimensionError(op, train.NumFeatures(), other.NumFeatures(), 1)
	}
	if other.NumTargets() != train.NumTargets() {
		return errors.NewDimensionError(op, train.NumTargets(), other.NumTargets(), 2)
	}
	return nil
}

func (e *GradientBoostedEnsemble) initialPredictions(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = slices.Clone(e.initialGuess)
	}
	return out
}

// applyTree adds learningRate times root's output for every row to the
// matching prediction. Rows are independent, so chunks run in parallel.
func (e *GradientBoostedEnsemble) applyTree(ctx context.Context, root *tree.Node, rows, predictions [][]float64) error {
	update := func(start, end int) error {
		for i := start; i < end; i++ {
			out, err := e.treeOutput(root, rows[i])
			if err != nil {
				return errors.Wrapf(err, "row %d", i)
			}
			if err := vector.AddScaledTo(predictions[i], e.learningRate, out); err != nil {
				return err
			}
		}
		return nil
	}
	if len(rows) < rowParallelThreshold || parallel.Workers(e.numWorkers) == 1 {
		return update(0, len(rows))
	}
	return parallel.ForEachChunk(ctx, len(rows), e.numWorkers, func(_ context.Context, start, end int) error {
		return update(start, end)
	})
}

func (e *GradientBoostedEnsemble) treeOutput(root *tree.Node, row []float64) ([]float64, error) {
	leaf, err := root.FindLeaf(row)
	if err != nil {
		return nil, err
	}
	return tree.LeafOutput(leaf)
}

func (e *GradientBoostedEnsemble) truncate(n int) {
	e.trees = e.trees[:n]
	for name, h := range e.evalHistory {
		if len(h) > n {
			e.evalHistory[name] = h[:n]
		}
	}
	if e.metrics != nil {
		e.metrics.Trees.Set(float64(n))
	}
}

func (e *GradientBoostedEnsemble) lastLoss(name string) float64 {
	h := e.evalHistory[name]
	if len(h) == 0 {
		return math.NaN()
	}
	return h[len(h)-1]
}

// Predict returns initialGuess + Σ learningRate * output(tree, row) with the
// sum taken in tree order.
func (e *GradientBoostedEnsemble) Predict(row []float64) ([]float64, error) {
	if err := e.checkReady("ensemble.Predict"); err != nil {
		return nil, err
	}
	if len(row) != e.nFeatures {
		return nil, errors.NewDimensionError("ensemble.Predict", e.nFeatures, len(row), 1)
	}
	if len(e.trees) >= treeParallelThreshold && parallel.Workers(e.numWorkers) > 1 {
		return e.predictTreesParallel(row)
	}
	return e.predict(row)
}

func (e *GradientBoostedEnsemble) checkReady(op string) error {
	if e == nil || len(e.trees) == 0 {
		return errors.NewInsufficientDataError(op, "ensemble has no trees")
	}
	return nil
}

func (e *GradientBoostedEnsemble) predict(row []float64) ([]float64, error) {
	prediction := slices.Clone(e.initialGuess)
	for t, root := range e.trees {
		out, err := e.treeOutput(root, row)
		if err != nil {
			return nil, errors.Wrapf(err, "tree %d", t)
		}
		if err := vector.AddScaledTo(prediction, e.learningRate, out); err != nil {
			return nil, err
		}
	}
	return prediction, nil
}

// predictTreesParallel evaluates trees concurrently, then sums the
// contributions in tree order.
func (e *GradientBoostedEnsemble) predictTreesParallel(row []float64) ([]float64, error) {
	outputs := make([][]float64, len(e.trees))
	err := parallel.ForEachChunk(context.Background(), len(e.trees), e.numWorkers, func(_ context.Context, start, end int) error {
		for t := start; t < end; t++ {
			out, err := e.treeOutput(e.trees[t], row)
			if err != nil {
				return errors.Wrapf(err, "tree %d", t)
			}
			outputs[t] = out
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	prediction := slices.Clone(e.initialGuess)
	for _, out := range outputs {
		if err := vector.AddScaledTo(prediction, e.learningRate, out); err != nil {
			return nil, err
		}
	}
	return prediction, nil
}

// CalculateAllPredictions predicts every row of test. The i-th result belongs
// to the i-th row.
func (e *GradientBoostedEnsemble) CalculateAllPredictions(test *dataset.Dataset) ([][]float64, error) {
	return e.CalculateAllPredictionsContext(context.Background(), test)
}

// CalculateAllPredictionsContext is CalculateAllPredictions with cancellation.
func (e *GradientBoostedEnsemble) CalculateAllPredictionsContext(ctx context.Context, test *dataset.Dataset) ([][]float64, error) {
	if err := e.checkReady("ensemble.CalculateAllPredictions"); err != nil {
		return nil, err
	}
	if test == nil || test.NumRows() == 0 {
		return [][]float64{}, nil
	}
	if test.NumFeatures() != e.nFeatures {
		return nil, errors.NewDimensionError("ensemble.CalculateAllPredictions", e.nFeatures, test.NumFeatures(), 1)
	}
	return e.PredictRows(ctx, test.Features())
}

// PredictRows predicts every feature row; the i-th result belongs to rows[i].
// Rows are evaluated in parallel chunks when there are enough of them.
func (e *GradientBoostedEnsemble) PredictRows(ctx context.Context, rows [][]float64) ([][]float64, error) {
	if err := e.checkReady("ensemble.PredictRows"); err != nil {
		return nil, err
	}
	out := make([][]float64, len(rows))
	predictRange := func(start, end int) error {
		for i := start; i < end; i++ {
			if len(rows[i]) != e.nFeatures {
				return errors.Wrapf(errors.NewDimensionError("ensemble.PredictRows", e.nFeatures, len(rows[i]), 1), "row %d", i)
			}
			p, err := e.predict(rows[i])
			if err != nil {
				return errors.Wrapf(err, "row %d", i)
			}
			out[i] = p
		}
		return nil
	}

	var err error
	if len(rows) < rowParallelThreshold || parallel.Workers(e.numWorkers) == 1 {
		err = predictRange(0, len(rows))
	} else {
		err = parallel.ForEachChunk(ctx, len(rows), e.numWorkers, func(_ context.Context, start, end int) error {
			return predictRange(start, end)
		})
	}
	if err != nil {
		return nil, err
	}
	e.metrics.ObservePredictions("predict", len(out))
	return out, nil
}

// CalculateError returns the MSE of the predictions for test, flattened over
// rows and targets.
func (e *GradientBoostedEnsemble) CalculateError(test *dataset.Dataset) (float64, error) {
	if err := e.checkReady("ensemble.CalculateError"); err != nil {
		return 0, err
	}
	if test == nil || test.NumRows() == 0 {
		return 0, errors.NewInsufficientDataError("ensemble.CalculateError", "test dataset has no rows")
	}
	if test.NumTargets() != e.nTargets {
		return 0, errors.NewDimensionError("ensemble.CalculateError", e.nTargets, test.NumTargets(), 2)
	}
	predictions, err := e.CalculateAllPredictions(test)
	if err != nil {
		return 0, err
	}
	return metrics.MultiTargetMSE(test.Labels(), predictions)
}

// Trees returns the trees in boosting order.
func (e *GradientBoostedEnsemble) Trees() []*tree.Node { return e.trees }

// InitialGuess returns a copy of the mean training label vector.
func (e *GradientBoostedEnsemble) InitialGuess() []float64 { return slices.Clone(e.initialGuess) }

// LearningRate returns the shrinkage applied to every tree.
func (e *GradientBoostedEnsemble) LearningRate() float64 { return e.learningRate }

// NumTrees returns the number of trees.
func (e *GradientBoostedEnsemble) NumTrees() int { return len(e.trees) }

// NumFeatures returns the expected row length.
func (e *GradientBoostedEnsemble) NumFeatures() int { return e.nFeatures }

// NumTargets returns the prediction vector length.
func (e *GradientBoostedEnsemble) NumTargets() int { return e.nTargets }

// BestIteration returns the iteration EarlyStopping judged best, or -1.
func (e *GradientBoostedEnsemble) BestIteration() int { return e.bestIteration }

// EvalHistory returns a copy of the per-round MSE of every evaluated dataset.
func (e *GradientBoostedEnsemble) EvalHistory() map[string][]float64 {
	out := make(map[string][]float64, len(e.evalHistory))
	for name, h := range e.evalHistory {
		out[name] = slices.Clone(h)
	}
	return out
}
