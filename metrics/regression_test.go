package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

func TestVectorMetrics(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})

	tests := []struct {
		name  string
		yPred []float64
		mse   float64
		mae   float64
		r2    float64
	}{
		{"perfect", []float64{1, 2, 3, 4}, 0, 0, 1},
		{"half off", []float64{1.5, 2.5, 2.5, 3.5}, 0.25, 0.5, 0.8},
		{"mean predictor", []float64{2.5, 2.5, 2.5, 2.5}, 1.25, 1, 0},
		{"reversed", []float64{4, 3, 2, 1}, 5, 2, -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yPred := mat.NewVecDense(4, tt.yPred)

			mse, err := MSE(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.mse, mse, 1e-12)

			rmse, err := RMSE(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, math.Sqrt(tt.mse), rmse, 1e-12)

			mae, err := MAE(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.mae, mae, 1e-12)

			r2, err := R2Score(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.r2, r2, 1e-12)
		})
	}
}

func TestVectorMetricsErrors(t *testing.T) {
	short := mat.NewVecDense(2, []float64{1, 2})
	long := mat.NewVecDense(3, []float64{1, 2, 3})
	empty := &mat.VecDense{}

	fns := map[string]func(a, b *mat.VecDense) (float64, error){
		"MSE": MSE, "RMSE": RMSE, "MAE": MAE, "R2Score": R2Score,
	}
	for name, fn := range fns {
		t.Run(name, func(t *testing.T) {
			_, err := fn(long, short)
			var dimErr *errors.DimensionError
			assert.True(t, errors.As(err, &dimErr))

			_, err = fn(empty, empty)
			var valErr *errors.ValueError
			assert.True(t, errors.As(err, &valErr))
		})
	}

	constant := mat.NewVecDense(3, []float64{7, 7, 7})
	_, err := R2Score(constant, long)
	assert.True(t, errors.Is(err, ErrConstantTarget))
}

func TestScoreColumns(t *testing.T) {
	yTrue := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})
	yPred := mat.NewDense(4, 2, []float64{
		1, 12,
		2, 18,
		3, 30,
		4, 40,
	})

	scores, err := ScoreColumns(yTrue, yPred)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	assert.Equal(t, TargetScores{MSE: 0, RMSE: 0, MAE: 0, R2: 1}, scores[0])
	assert.InDelta(t, 2.0, scores[1].MSE, 1e-12)
	assert.InDelta(t, math.Sqrt2, scores[1].RMSE, 1e-12)
	assert.InDelta(t, 1.0, scores[1].MAE, 1e-12)
	// TSS = 500, RSS = 8
	assert.InDelta(t, 1-8.0/500, scores[1].R2, 1e-12)

	var dimErr *errors.DimensionError
	_, err = ScoreColumns(yTrue, mat.NewDense(4, 1, nil))
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Axis)

	_, err = ScoreColumns(yTrue, mat.NewDense(3, 2, nil))
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 0, dimErr.Axis)
}

func TestMultiTargetMSE(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		rows := [][]float64{{1, 2, 3}}
		got, err := MultiTargetMSE(rows, [][]float64{{1, 2, 3}})
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	})

	t.Run("flattened over rows and targets", func(t *testing.T) {
		got, err := MultiTargetMSE(
			[][]float64{{1, 2}, {3, 4}},
			[][]float64{{2, 2}, {3, 6}},
		)
		require.NoError(t, err)
		assert.InDelta(t, 5.0/4.0, got, 1e-12)
	})

	t.Run("row count mismatch", func(t *testing.T) {
		_, err := MultiTargetMSE([][]float64{{1}}, [][]float64{{1}, {2}})
		var dimErr *errors.DimensionError
		require.True(t, errors.As(err, &dimErr))
		assert.Equal(t, 0, dimErr.Axis)
	})

	t.Run("target length mismatch", func(t *testing.T) {
		_, err := MultiTargetMSE([][]float64{{1, 2}}, [][]float64{{1}})
		var dimErr *errors.DimensionError
		require.True(t, errors.As(err, &dimErr))
		assert.Equal(t, 2, dimErr.Axis)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := MultiTargetMSE(nil, nil)
		assert.True(t, errors.Is(err, errors.ErrInsufficientData))
	})
}

func TestR2ScoreMatrix(t *testing.T) {
	yTrue := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	got, err := R2ScoreMatrix(yTrue, yTrue)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)

	// 第1列は完全、第2列は逆順（R² = -3）
	yPred := mat.NewDense(4, 2, []float64{
		1, 40,
		2, 30,
		3, 20,
		4, 10,
	})
	got, err = R2ScoreMatrix(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, (1.0-3.0)/2, got, 1e-12)

	_, err = R2ScoreMatrix(yTrue, mat.NewDense(3, 2, nil))
	assert.Error(t, err)
}

func TestR2ScoreMatrixConstantColumn(t *testing.T) {
	var warned []error
	errors.SetWarningHandler(func(w error) { warned = append(warned, w) })
	defer errors.SetWarningHandler(nil)

	yTrue := mat.NewDense(3, 1, []float64{2, 2, 2})

	got, err := R2ScoreMatrix(yTrue, yTrue)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
	assert.Empty(t, warned)

	got, err = R2ScoreMatrix(yTrue, mat.NewDense(3, 1, []float64{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
	require.Len(t, warned, 1)
	var w *errors.UndefinedMetricWarning
	assert.True(t, errors.As(warned[0], &w))
}

func BenchmarkScoreColumns(b *testing.B) {
	const rows, cols = 10000, 4
	yTrue := mat.NewDense(rows, cols, nil)
	yPred := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			yTrue.Set(i, j, float64(i*cols+j))
			yPred.Set(i, j, float64(i*cols+j)+0.1*float64(i%10))
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ScoreColumns(yTrue, yPred)
	}
}
