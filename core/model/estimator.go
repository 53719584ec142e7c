package model

import (
	"context"

	"github.com/YuminosukeSato/kernelmachine/core/features"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(ctx context.Context, X features.Set, y features.Labels) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X features.Set) ([]float64, error)
}

// Scorer は評価スコアを計算できるモデルのインターフェース
type Scorer interface {
	// Score は分類器なら正解率、回帰なら決定係数R²を返す
	Score(X features.Set, y features.Labels) (float64, error)
}

// Estimator は教師あり学習モデルの基本インターフェース
type Estimator interface {
	Fitter
	Predictor
	Scorer
}
