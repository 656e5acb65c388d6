// Package model は推定器（estimator）の共通インターフェースと学習状態の管理を提供します。
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator は教師あり学習モデルの基本インターフェース
type Estimator interface {
	Fitter
	Predictor
}

// Regressor は回帰モデル。Score は決定係数R²を返す。
type Regressor interface {
	Estimator
	Score(X, y mat.Matrix) (float64, error)
}

// Classifier は分類モデル
type Classifier interface {
	Estimator

	// PredictProba は各クラスの確率を予測（列数 = クラス数）
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// TreeModel は決定木ベースのモデルの構造情報
type TreeModel interface {
	GetDepth() int
	GetNLeaves() int
	GetFeatureImportances() []float64
}

// ParameterGetter はハイパーパラメータを公開するモデル
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter はハイパーパラメータを変更できるモデル
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}
