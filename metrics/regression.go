package metrics

import (
	"math"

	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// residuals は yTrue - yPred を返す
func residuals(op string, yTrue, yPred *mat.VecDense) ([]float64, error) {
	if _, err := checkPair(op, yTrue, yPred); err != nil {
		return nil, err
	}
	r := mat.Col(nil, 0, yTrue)
	floats.Sub(r, mat.Col(nil, 0, yPred))
	return r, nil
}

// MSE は平均二乗誤差を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	r, err := residuals("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Dot(r, r) / float64(len(r)), nil
}

// RMSE は MSE の平方根。SVRの ε と同じ単位で誤差を読める
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	r, err := residuals("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Norm(r, 1) / float64(len(r)), nil
}

// R2Score は決定係数 1 - RSS/TSS を計算する。
// yTrue が定数のときは定義できないため ValueError を返す。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	const op = "R2Score"
	r, err := residuals(op, yTrue, yPred)
	if err != nil {
		return 0, err
	}
	_, variance := stat.PopMeanVariance(mat.Col(nil, 0, yTrue), nil)
	tss := variance * float64(len(r))
	if tss == 0 {
		return 0, errors.NewValueError(op, "yTrue has no variance")
	}
	return 1 - floats.Dot(r, r)/tss, nil
}

// ExplainedVarianceScore は 1 - Var(yTrue - yPred)/Var(yTrue) を計算する。
// R2Score と違い、予測の一定のずれ（バイアス）は減点しない。
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	const op = "ExplainedVarianceScore"
	r, err := residuals(op, yTrue, yPred)
	if err != nil {
		return 0, err
	}
	_, varTrue := stat.PopMeanVariance(mat.Col(nil, 0, yTrue), nil)
	if varTrue == 0 {
		return 0, errors.NewValueError(op, "yTrue has no variance")
	}
	_, varRes := stat.PopMeanVariance(r, nil)
	return 1 - varRes/varTrue, nil
}
