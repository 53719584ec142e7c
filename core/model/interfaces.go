package model

import "github.com/YuminosukeSato/kernelmachine/core/features"

// DecisionFunctioner は符号付き決定値を返すモデル
type DecisionFunctioner interface {
	// DecisionFunction は各入力ベクトルの決定値を返す
	DecisionFunction(X features.Set) ([]float64, error)
}

// Classifier は分類モデルのインターフェース
type Classifier interface {
	Estimator
	DecisionFunctioner

	// Classes は学習時に観測したクラスラベルを返す
	Classes() []float64
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}

// WeightExporter は重みをエクスポート可能なモデルのインターフェース
type WeightExporter interface {
	// ExportWeights はモデルの重みをエクスポート
	ExportWeights() (*ModelWeights, error)

	// ImportWeights はモデルの重みをインポート
	ImportWeights(weights *ModelWeights) error
}
