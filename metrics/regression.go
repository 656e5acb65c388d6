// Package metrics は回帰・分類モデルの評価指標を提供します。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

// ErrConstantTarget は正解値の分散が0でR²が定義できないことを示す。
var ErrConstantTarget = errors.New("metrics: target has no variance, R² is undefined")

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// MultiTargetMSE は行ごとのラベルベクトルと予測ベクトルを平坦化したMSEを計算する。
// 行数・ベクトル長の不一致はDimensionErrorになる。
func MultiTargetMSE(yTrue, yPred [][]float64) (float64, error) {
	if len(yTrue) == 0 {
		return 0, errors.NewInsufficientDataError("MultiTargetMSE", "no rows")
	}
	if len(yTrue) != len(yPred) {
		return 0, errors.NewDimensionError("MultiTargetMSE", len(yTrue), len(yPred), 0)
	}

	var sum float64
	count := 0
	for i := range yTrue {
		if len(yTrue[i]) != len(yPred[i]) {
			return 0, errors.Wrapf(errors.NewDimensionError("MultiTargetMSE", len(yTrue[i]), len(yPred[i]), 2), "row %d", i)
		}
		for j := range yTrue[i] {
			diff := yTrue[i][j] - yPred[i][j]
			sum += diff * diff
		}
		count += len(yTrue[i])
	}
	if count == 0 {
		return 0, errors.NewInsufficientDataError("MultiTargetMSE", "no targets")
	}
	return sum / float64(count), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MAE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("R2Score", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	// 全変動（TSS）と残差変動（RSS）
	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)
		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	if tss == 0 {
		return 0, errors.Wrap(ErrConstantTarget, "R2Score")
	}
	return 1 - rss/tss, nil
}

// TargetScores は1つのターゲット列に対する評価指標
type TargetScores struct {
	MSE  float64
	RMSE float64
	MAE  float64
	R2   float64
}

// ScoreColumns は列ごとにMSE・RMSE・MAE・R²を計算する。
// 分散0の列のR²は完全予測なら1、そうでなければ0とし、UndefinedMetricWarningを出す。
func ScoreColumns(yTrue, yPred mat.Matrix) ([]TargetScores, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 {
		return nil, errors.NewValueError("ScoreColumns", "empty matrix")
	}
	if rTrue != rPred {
		return nil, errors.NewDimensionError("ScoreColumns", rTrue, rPred, 0)
	}
	if cTrue != cPred {
		return nil, errors.NewDimensionError("ScoreColumns", cTrue, cPred, 2)
	}

	scores := make([]TargetScores, cTrue)
	tCol := make([]float64, rTrue)
	pCol := make([]float64, rTrue)
	t := mat.NewVecDense(rTrue, tCol)
	p := mat.NewVecDense(rTrue, pCol)
	for j := range scores {
		mat.Col(tCol, j, yTrue)
		mat.Col(pCol, j, yPred)

		var err error
		s := &scores[j]
		if s.MSE, err = MSE(t, p); err != nil {
			return nil, errors.Wrapf(err, "target %d", j)
		}
		if s.RMSE, err = RMSE(t, p); err != nil {
			return nil, errors.Wrapf(err, "target %d", j)
		}
		if s.MAE, err = MAE(t, p); err != nil {
			return nil, errors.Wrapf(err, "target %d", j)
		}
		s.R2, err = R2Score(t, p)
		switch {
		case err == nil:
		case errors.Is(err, ErrConstantTarget):
			s.R2 = 0
			if s.MSE == 0 {
				s.R2 = 1
			} else {
				errors.Warn(errors.NewUndefinedMetricWarning("R2Score", "constant target column", 0))
			}
		default:
			return nil, errors.Wrapf(err, "target %d", j)
		}
	}
	return scores, nil
}

// R2ScoreMatrix は列ごとのR²を一様平均する（scikit-learnのmultioutput="uniform_average"）。
func R2ScoreMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	scores, err := ScoreColumns(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, s := range scores {
		total += s.R2
	}
	return total / float64(len(scores)), nil
}
