package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

func TestDecisionTreeRegressor_MultiOutput(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{0, 1, 2, 10, 11, 12})
	Y := mat.NewDense(6, 2, []float64{
		1, -1,
		1, -1,
		1, -1,
		5, 3,
		5, 3,
		5, 3,
	})

	dt := NewDecisionTreeRegressor(quiet())
	require.NoError(t, dt.Fit(X, Y))
	assert.Equal(t, 1, dt.GetDepth())
	assert.Equal(t, 2, dt.GetNLeaves())
	assert.Equal(t, []float64{1}, dt.GetFeatureImportances())

	pred, err := dt.Predict(mat.NewDense(2, 1, []float64{1.5, 11.5}))
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewDense(2, 2, []float64{1, -1, 5, 3}), pred))

	score, err := dt.Score(X, Y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-12)
}

func TestDecisionTreeRegressor_MaxDepthAveragesLeaves(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	Y := mat.NewDense(4, 1, []float64{0, 2, 10, 12})

	dt := NewDecisionTreeRegressor(WithMaxDepth(1), quiet())
	require.NoError(t, dt.Fit(X, Y))

	pred, err := dt.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 11, 11}, mat.Col(nil, 0, pred))
}

func TestDecisionTreeRegressor_Errors(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0, 1, 2})
	Y := mat.NewDense(3, 1, []float64{0, 1, 2})

	var nf *errors.NotFittedError
	_, err := NewDecisionTreeRegressor(quiet()).Predict(X)
	assert.True(t, errors.As(err, &nf))

	var valErr *errors.ValidationError
	err = NewDecisionTreeRegressor(WithCriterion("gini"), quiet()).Fit(X, Y)
	assert.True(t, errors.As(err, &valErr))

	err = NewDecisionTreeRegressor(WithMinSamplesLeaf(0), quiet()).Fit(X, Y)
	assert.True(t, errors.As(err, &valErr))

	var dimErr *errors.DimensionError
	err = NewDecisionTreeRegressor(quiet()).Fit(X, mat.NewDense(2, 1, nil))
	assert.True(t, errors.As(err, &dimErr))

	dt := NewDecisionTreeRegressor(quiet())
	require.NoError(t, dt.Fit(X, Y))
	_, err = dt.Predict(mat.NewDense(1, 2, nil))
	assert.True(t, errors.As(err, &dimErr))
}
