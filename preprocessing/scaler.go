package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/core/model"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// 標準偏差・値域がこれ未満の特徴量は定数とみなしスケールを1にする
const constantFeatureTol = 1e-8

// toDense は任意のFeatureSetを密行列に展開する
func toDense(op string, X features.Set) (*mat.Dense, error) {
	if X == nil || X.NumVectors() == 0 || X.Dim() == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ds, ok := X.(*features.DenseSet); ok {
		return ds.Matrix(), nil
	}
	out := mat.NewDense(X.NumVectors(), X.Dim(), nil)
	for i := 0; i < X.NumVectors(); i++ {
		out.SetRow(i, X.Vector(i).Dense())
	}
	return out, nil
}

// StandardScaler は特徴量を平均0、標準偏差1に変換する。
// RBFカーネルは特徴量のスケールに敏感なため、SVMの前段で使う。
type StandardScaler struct {
	state *model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の母標準偏差
	Scale []float64

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	Xs, err := scaler.FitTransform(X)
//	clf.Fit(ctx, Xs, y)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// IsFitted は学習済みかどうかを返す
func (s *StandardScaler) IsFitted() bool { return s.state.IsFitted() }

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
func (s *StandardScaler) Fit(X features.Set) error {
	dense, err := toDense("StandardScaler.Fit", X)
	if err != nil {
		return err
	}
	r, c := dense.Dims()

	s.state.Reset()
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, dense)
		mean, variance := stat.PopMeanVariance(col, nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1
		if s.WithStd {
			// WithMean=false でも分散は平均まわりで測る
			if std := math.Sqrt(variance); std >= constantFeatureTol {
				s.Scale[j] = std
			}
		}
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X features.Set) (*features.DenseSet, error) {
	return s.apply("Transform", X, func(v, mean, scale float64) float64 {
		return (v - mean) / scale
	})
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X features.Set) (*features.DenseSet, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X features.Set) (*features.DenseSet, error) {
	return s.apply("InverseTransform", X, func(v, mean, scale float64) float64 {
		return v*scale + mean
	})
}

func (s *StandardScaler) apply(method string, X features.Set, fn func(v, mean, scale float64) float64) (*features.DenseSet, error) {
	if err := s.state.RequireFitted("StandardScaler", method); err != nil {
		return nil, err
	}
	op := "StandardScaler." + method
	dense, err := toDense(op, X)
	if err != nil {
		return nil, err
	}
	r, c := dense.Dims()
	if nFeatures, _ := s.state.GetDimensions(); c != nFeatures {
		return nil, errors.NewDimensionError(op, nFeatures, c, 1)
	}
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return fn(v, s.Mean[j], s.Scale[j])
	}, dense)
	return features.NewDenseSet(result), nil
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	nFeatures, _ := s.state.GetDimensions()
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, nFeatures)
}

// MinMaxScaler はデータを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	state *model.StateManager

	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// Scale は各特徴量のスケール (max - min)、定数特徴量では1
	Scale []float64

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// IsFitted は学習済みかどうかを返す
func (m *MinMaxScaler) IsFitted() bool { return m.state.IsFitted() }

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X features.Set) error {
	const op = "MinMaxScaler.Fit"
	if m.FeatureRange[0] >= m.FeatureRange[1] {
		return errors.NewValueError(op, fmt.Sprintf("feature range [%g, %g] is empty", m.FeatureRange[0], m.FeatureRange[1]))
	}
	dense, err := toDense(op, X)
	if err != nil {
		return err
	}
	r, c := dense.Dims()

	m.state.Reset()
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, dense)
		m.DataMin[j] = floats.Min(col)
		m.DataMax[j] = floats.Max(col)
		m.Scale[j] = m.DataMax[j] - m.DataMin[j]
		if m.Scale[j] < constantFeatureTol {
			m.Scale[j] = 1
		}
	}

	m.state.SetDimensions(c, r)
	m.state.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(X features.Set) (*features.DenseSet, error) {
	width := m.FeatureRange[1] - m.FeatureRange[0]
	return m.apply("Transform", X, func(v float64, j int) float64 {
		return (v-m.DataMin[j])/m.Scale[j]*width + m.FeatureRange[0]
	})
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X features.Set) (*features.DenseSet, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X features.Set) (*features.DenseSet, error) {
	width := m.FeatureRange[1] - m.FeatureRange[0]
	return m.apply("InverseTransform", X, func(v float64, j int) float64 {
		return (v-m.FeatureRange[0])/width*m.Scale[j] + m.DataMin[j]
	})
}

func (m *MinMaxScaler) apply(method string, X features.Set, fn func(v float64, j int) float64) (*features.DenseSet, error) {
	if err := m.state.RequireFitted("MinMaxScaler", method); err != nil {
		return nil, err
	}
	op := "MinMaxScaler." + method
	dense, err := toDense(op, X)
	if err != nil {
		return nil, err
	}
	r, c := dense.Dims()
	if nFeatures, _ := m.state.GetDimensions(); c != nFeatures {
		return nil, errors.NewDimensionError(op, nFeatures, c, 1)
	}
	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 { return fn(v, j) }, dense)
	return features.NewDenseSet(result), nil
}

// GetParams はスケーラーのパラメータを取得する
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	nFeatures, _ := m.state.GetDimensions()
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], nFeatures)
}
