package preprocessing

import (
	"context"
	"testing"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/kernel"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"github.com/YuminosukeSato/kernelmachine/sklearn/svm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestStandardScaler(t *testing.T) {
	X := features.NewDenseSet(mat.NewDense(4, 3, []float64{
		1, 10, 5,
		2, 20, 5,
		3, 30, 5,
		4, 40, 5,
	}))

	s := NewStandardScalerDefault()
	Xs, err := s.FitTransform(X)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{2.5, 25, 5}, s.Mean, 1e-12)
	// 定数列のスケールは1
	assert.InDeltaSlice(t, []float64{1.118033988749895, 11.18033988749895, 1}, s.Scale, 1e-12)
	assert.InDeltaSlice(t, []float64{-1.3416407864998738, -1.3416407864998738, 0}, Xs.Vector(0).Dense(), 1e-12)

	back, err := s.InverseTransform(Xs)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X.Matrix(), back.Matrix(), 1e-12))
	assert.Equal(t, "StandardScaler(with_mean=true, with_std=true, n_features=3)", s.String())
}

func TestStandardScalerWithoutMean(t *testing.T) {
	X := features.NewDenseSet(mat.NewDense(2, 1, []float64{2, 4}))
	s := NewStandardScaler(false, true)
	Xs, err := s.FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, s.Mean)
	assert.InDeltaSlice(t, []float64{2, 4}, mat.Col(nil, 0, Xs.Matrix()), 1e-12)
}

func TestStandardScalerSparseInput(t *testing.T) {
	sparse, err := features.NewSparseSet(3, []*features.SparseVector{
		features.NewSparseVector(3, []int{0}, []float64{2}),
		features.NewSparseVector(3, []int{2}, []float64{4}),
	})
	require.NoError(t, err)

	Xs, err := NewStandardScalerDefault().FitTransform(sparse)
	require.NoError(t, err)
	assert.Equal(t, features.Dense, Xs.Kind())
	assert.InDeltaSlice(t, []float64{1, 0, -1}, Xs.Vector(0).Dense(), 1e-12)
}

func TestMinMaxScaler(t *testing.T) {
	X := features.NewDenseSet(mat.NewDense(3, 2, []float64{
		0, 7,
		5, 7,
		10, 7,
	}))

	m := NewMinMaxScaler([2]float64{-1, 1})
	Xs, err := m.FitTransform(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-1, 0, 1}, mat.Col(nil, 0, Xs.Matrix()), 1e-12)
	assert.InDeltaSlice(t, []float64{-1, -1, -1}, mat.Col(nil, 1, Xs.Matrix()), 1e-12)

	back, err := m.InverseTransform(Xs)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X.Matrix(), back.Matrix(), 1e-12))
}

func TestScalerErrors(t *testing.T) {
	s := NewStandardScalerDefault()
	X := features.NewDenseSet(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))

	_, err := s.Transform(X)
	var nf *errors.NotFittedError
	assert.ErrorAs(t, err, &nf)

	assert.ErrorIs(t, s.Fit(nil), errors.ErrEmptyData)

	require.NoError(t, s.Fit(X))
	_, err = s.Transform(features.NewDenseSet(mat.NewDense(1, 3, nil)))
	var dimErr *errors.DimensionError
	assert.ErrorAs(t, err, &dimErr)

	var valErr *errors.ValueError
	assert.ErrorAs(t, NewMinMaxScaler([2]float64{1, 1}).Fit(X), &valErr)
}

func TestScalingHelpsGaussianKernel(t *testing.T) {
	// 2列目だけが判別に効くが、1列目の値域が桁違いに大きい
	n := 40
	X := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64((i*37)%n)*1000)
		label := float64(i % 2)
		X.Set(i, 1, label*2-1+0.1*float64(i%3))
		y[i] = label
	}
	labels := features.NewLabels(y)

	Xs, err := NewStandardScalerDefault().FitTransform(features.NewDenseSet(X))
	require.NoError(t, err)

	clf := svm.NewSVC(svm.WithKernel(kernel.Gaussian{Gamma: 0.5}))
	require.NoError(t, clf.Fit(context.Background(), Xs, labels))
	acc, err := clf.Score(Xs, labels)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)
}
