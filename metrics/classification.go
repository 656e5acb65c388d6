package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

// AccuracyScore は正解率（一致したラベルの割合）を計算する。
// 入力は1列の行列またはベクトルで、ラベルは完全一致で比較する。
func AccuracyScore(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 {
		return 0, errors.NewValueError("AccuracyScore", "empty input")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("AccuracyScore", rTrue, rPred, 0)
	}
	if cTrue != 1 || cPred != 1 {
		return 0, errors.NewValueError("AccuracyScore", "labels must be a single column")
	}

	correct := 0
	for i := 0; i < rTrue; i++ {
		if yTrue.At(i, 0) == yPred.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(rTrue), nil
}
