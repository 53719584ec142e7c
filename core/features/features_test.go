package features

import (
	"testing"

	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestDenseAndSparseDotAgree(t *testing.T) {
	d1 := DenseVector{1, 0, 2, 0, 3}
	d2 := DenseVector{0, 4, 1, 0, -1}
	s1 := NewSparseVector(5, []int{0, 2, 4}, []float64{1, 2, 3})
	s2 := NewSparseVector(5, []int{1, 2, 4}, []float64{4, 1, -1})

	want := -1.0
	assert.InDelta(t, want, d1.Dot(d2), 1e-12)
	assert.InDelta(t, want, s1.Dot(s2), 1e-12)
	assert.InDelta(t, want, s1.Dot(d2), 1e-12)
	assert.InDelta(t, want, d1.Dot(s2), 1e-12)
	assert.InDelta(t, 14.0, s1.SquaredNorm(), 1e-12)
	assert.Equal(t, []float64(d1), s1.Dense())
}

func TestSquaredDistance(t *testing.T) {
	a := DenseVector{1, 2}
	b := DenseVector{4, 6}
	assert.InDelta(t, 25.0, SquaredDistance(a, b), 1e-12)

	sa := NewSparseVector(2, []int{0, 1}, []float64{1, 2})
	sb := NewSparseVector(2, []int{0, 1}, []float64{4, 6})
	assert.InDelta(t, 25.0, SquaredDistance(sa, sb), 1e-12)
	assert.GreaterOrEqual(t, SquaredDistance(sa, sa), 0.0)
}

func TestFromRows(t *testing.T) {
	s, err := FromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 3, s.NumVectors())
	assert.Equal(t, 2, s.Dim())
	assert.Equal(t, Dense, s.Kind())
	assert.Equal(t, []float64{3, 4}, s.Vector(1).Dense())

	_, err = FromRows([][]float64{{1, 2}, {3}})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = FromRows(nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestNewSparseSetValidation(t *testing.T) {
	_, err := NewSparseSet(3, []*SparseVector{NewSparseVector(3, []int{2, 1}, []float64{1, 1})})
	assert.Error(t, err)

	_, err = NewSparseSet(3, []*SparseVector{NewSparseVector(4, []int{0}, []float64{1})})
	assert.Error(t, err)

	s, err := NewSparseSet(3, []*SparseVector{NewSparseVector(3, []int{0, 2}, []float64{1, 1})})
	require.NoError(t, err)
	assert.Equal(t, Sparse, s.Kind())
}

func TestSubsetCollapsesNestedViews(t *testing.T) {
	base := FromMatrix(mat.NewDense(5, 1, []float64{0, 10, 20, 30, 40}))

	outer, err := Subset(base, []int{4, 3, 1})
	require.NoError(t, err)
	inner, err := Subset(outer, []int{2, 0})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 4}, inner.Indices())
	assert.Equal(t, 10.0, inner.Vector(0).Dense()[0])
	assert.Equal(t, 40.0, inner.Vector(1).Dense()[0])

	_, err = Subset(base, []int{5})
	assert.Error(t, err)
}

func TestCopySubsetKeepsKind(t *testing.T) {
	sparse, err := NewSparseSet(4, []*SparseVector{
		NewSparseVector(4, []int{0}, []float64{1}),
		NewSparseVector(4, []int{1, 3}, []float64{2, 3}),
		NewSparseVector(4, nil, nil),
	})
	require.NoError(t, err)

	cp, err := CopySubset(sparse, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, Sparse, cp.Kind())
	assert.Equal(t, 2, cp.NumVectors())
	assert.Equal(t, []float64{0, 2, 0, 3}, cp.Vector(0).Dense())

	dense := FromMatrix(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}))
	dcp, err := CopySubset(dense, []int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, Dense, dcp.Kind())
	assert.Equal(t, []float64{5, 6}, dcp.Vector(0).Dense())

	// the copy does not alias the source
	dense.Matrix().Set(2, 0, 100)
	assert.Equal(t, 5.0, dcp.Vector(0).Dense()[0])

	_, err = CopySubset(dense, nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestMerge(t *testing.T) {
	a := FromMatrix(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	b := FromMatrix(mat.NewDense(1, 2, []float64{5, 6}))
	m, err := Merge(a, b)
	require.NoError(t, err)
	assert.Equal(t, 3, m.NumVectors())
	assert.Equal(t, []float64{5, 6}, m.Vector(2).Dense())

	c := FromMatrix(mat.NewDense(1, 3, []float64{1, 2, 3}))
	_, err = Merge(a, c)
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	y := NewLabels([]float64{2, 0, 1, 1, 0})
	assert.Equal(t, 5, y.Len())
	assert.Equal(t, []float64{0, 1, 2}, y.Unique())

	c, err := y.NumClasses()
	require.NoError(t, err)
	assert.Equal(t, 3, c)

	assert.Equal(t, []float64{1, 2}, y.Subset([]int{3, 0}).Values())

	gap := NewLabels([]float64{0, 2, 2})
	_, err = gap.NumClasses()
	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	col := LabelsFromColumn(mat.NewDense(3, 1, []float64{1, 0, 1}))
	assert.Equal(t, []float64{1, 0, 1}, col.Values())
}

func TestCheckAligned(t *testing.T) {
	X := FromMatrix(mat.NewDense(2, 1, []float64{1, 2}))
	assert.NoError(t, CheckAligned("op", X, NewLabels([]float64{0, 1})))
	assert.Error(t, CheckAligned("op", X, NewLabels([]float64{0})))
	assert.Error(t, CheckAligned("op", nil, NewLabels(nil)))
}

func TestLabelsBinary(t *testing.T) {
	signs, enc, err := NewLabels([]float64{3, 7, 7, 3}).Binary()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -1, -1, 1}, signs)
	assert.Equal(t, 3.0, enc.Positive)
	assert.Equal(t, 7.0, enc.Negative)
	assert.Equal(t, 7.0, enc.Decode(-0.5))
	assert.Equal(t, 3.0, enc.Decode(0.5))

	_, _, err = NewLabels([]float64{1, 1}).Binary()
	assert.Error(t, err)
	_, _, err = NewLabels([]float64{0, 1, 2}).Binary()
	assert.Error(t, err)
}
