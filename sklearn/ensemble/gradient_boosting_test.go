package ensemble

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	gbt "github.com/YuminosukeSato/mtboost/ensemble"
	"github.com/YuminosukeSato/mtboost/pkg/errors"
	"github.com/YuminosukeSato/mtboost/pkg/log"
)

func stepData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(8, 1, []float64{0, 1, 2, 3, 10, 11, 12, 13})
	Y := mat.NewDense(8, 2, []float64{
		1, 0,
		1, 0,
		1, 0,
		1, 0,
		9, 4,
		9, 4,
		9, 4,
		9, 4,
	})
	return X, Y
}

func TestGradientBoostingRegressor_FitPredict(t *testing.T) {
	X, Y := stepData()
	gb := NewGradientBoostingRegressor(
		WithNEstimators(1),
		WithLearningRate(1.0),
		WithMaxDepth(1),
		WithLogger(log.NopLogger()),
	)
	require.NoError(t, gb.Fit(X, Y))

	pred, err := gb.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(Y, pred, 1e-12))

	score, err := gb.Score(X, Y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-12)

	e := gb.Ensemble()
	require.NotNil(t, e)
	assert.Equal(t, 1, e.NumTrees())
	assert.Equal(t, []float64{5, 2}, e.InitialGuess())
}

func TestGradientBoostingRegressor_ShrinkageConverges(t *testing.T) {
	X, Y := stepData()
	gb := NewGradientBoostingRegressor(WithNEstimators(50), WithLearningRate(0.2), WithLogger(log.NopLogger()))
	require.NoError(t, gb.Fit(X, Y))

	score, err := gb.Score(X, Y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.99)
	assert.Len(t, gb.Ensemble().EvalHistory()[gbt.TrainingSet], 50)
}

func TestGradientBoostingRegressor_Callbacks(t *testing.T) {
	X, Y := stepData()
	var history map[string][]float64
	gb := NewGradientBoostingRegressor(
		WithNEstimators(5),
		WithCallbacks(gbt.RecordEvaluation(&history)),
		WithLogger(log.NopLogger()),
	)
	require.NoError(t, gb.FitContext(context.Background(), X, Y))
	assert.Len(t, history[gbt.TrainingSet], 5)
}

func TestGradientBoostingRegressor_Errors(t *testing.T) {
	X, Y := stepData()

	var nf *errors.NotFittedError
	_, err := NewGradientBoostingRegressor().Predict(X)
	assert.True(t, errors.As(err, &nf))

	var valErr *errors.ValidationError
	err = NewGradientBoostingRegressor(WithLearningRate(0), WithLogger(log.NopLogger())).Fit(X, Y)
	assert.True(t, errors.As(err, &valErr))

	err = NewGradientBoostingRegressor(WithNEstimators(0), WithLogger(log.NopLogger())).Fit(X, Y)
	assert.True(t, errors.As(err, &valErr))

	var modelErr *errors.ModelError
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, "GradientBoostingRegressor.Fit", modelErr.Op)
	assert.Equal(t, "training", modelErr.Kind)

	nanY := mat.DenseCopyOf(Y)
	nanY.Set(0, 0, math.NaN())
	var numErr *errors.NumericalInstabilityError
	err = NewGradientBoostingRegressor(WithNEstimators(2), WithLogger(log.NopLogger())).Fit(X, nanY)
	assert.True(t, errors.As(err, &modelErr))
	assert.True(t, errors.As(err, &numErr))

	var dimErr *errors.DimensionError
	err = NewGradientBoostingRegressor(WithLogger(log.NopLogger())).Fit(X, mat.NewDense(3, 2, nil))
	assert.True(t, errors.As(err, &dimErr))

	gb := NewGradientBoostingRegressor(WithNEstimators(2), WithLogger(log.NopLogger()))
	require.NoError(t, gb.Fit(X, Y))
	_, err = gb.Predict(mat.NewDense(1, 2, nil))
	assert.True(t, errors.As(err, &dimErr))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = gb.FitContext(ctx, X, Y)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, gb.Ensemble())
	_, err = gb.Predict(X)
	assert.True(t, errors.As(err, &nf))
}

func TestGradientBoostingRegressor_GetParams(t *testing.T) {
	params := NewGradientBoostingRegressor().GetParams()
	assert.Equal(t, 100, params["n_estimators"])
	assert.Equal(t, 0.1, params["learning_rate"])
	assert.Equal(t, 3, params["max_depth"])
}
