package features

import (
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Set is an indexed, read-only collection of feature vectors.
type Set interface {
	// NumVectors returns the number of vectors.
	NumVectors() int
	// Dim returns the dimensionality shared by all vectors.
	Dim() int
	// Kind reports the storage representation.
	Kind() Kind
	// Vector returns vector i, 0 <= i < NumVectors().
	Vector(i int) Vector
}

// DenseSet stores one vector per row of a gonum matrix.
type DenseSet struct {
	m *mat.Dense
}

// NewDenseSet wraps m. The matrix is not copied.
func NewDenseSet(m *mat.Dense) *DenseSet {
	return &DenseSet{m: m}
}

// FromMatrix copies any mat.Matrix into a DenseSet.
func FromMatrix(X mat.Matrix) *DenseSet {
	return &DenseSet{m: mat.DenseCopyOf(X)}
}

// FromRows builds a DenseSet from row slices of equal length.
func FromRows(rows [][]float64) (*DenseSet, error) {
	if len(rows) == 0 {
		return nil, errors.NewModelError("features.FromRows", "empty data", errors.ErrEmptyData)
	}
	dim := len(rows[0])
	data := make([]float64, 0, len(rows)*dim)
	for _, r := range rows {
		if len(r) != dim {
			return nil, errors.NewDimensionError("features.FromRows", dim, len(r), 1)
		}
		data = append(data, r...)
	}
	return &DenseSet{m: mat.NewDense(len(rows), dim, data)}, nil
}

func (s *DenseSet) NumVectors() int {
	r, _ := s.m.Dims()
	return r
}

func (s *DenseSet) Dim() int {
	_, c := s.m.Dims()
	return c
}

func (s *DenseSet) Kind() Kind { return Dense }

func (s *DenseSet) Vector(i int) Vector {
	return DenseVector(s.m.RawRowView(i))
}

// Matrix returns the backing matrix.
func (s *DenseSet) Matrix() *mat.Dense {
	return s.m
}

// SparseSet stores sparse vectors of a common dimensionality.
type SparseSet struct {
	vectors []*SparseVector
	dim     int
}

// NewSparseSet validates that every vector has dimensionality dim and sorted indices.
func NewSparseSet(dim int, vectors []*SparseVector) (*SparseSet, error) {
	for i, v := range vectors {
		if v.Dim != dim {
			return nil, errors.NewDimensionError("features.NewSparseSet", dim, v.Dim, 1)
		}
		if len(v.Indices) != len(v.Values) {
			return nil, errors.NewValueError("features.NewSparseSet", "indices and values differ in length")
		}
		for k, idx := range v.Indices {
			if idx < 0 || idx >= dim || (k > 0 && idx <= v.Indices[k-1]) {
				return nil, errors.NewValidationError("indices", "must be strictly increasing and within [0, dim)", i)
			}
		}
	}
	return &SparseSet{vectors: vectors, dim: dim}, nil
}

func (s *SparseSet) NumVectors() int     { return len(s.vectors) }
func (s *SparseSet) Dim() int            { return s.dim }
func (s *SparseSet) Kind() Kind          { return Sparse }
func (s *SparseSet) Vector(i int) Vector { return s.vectors[i] }

// View is a logical selection of another Set's vectors.
type View struct {
	base    Set
	indices []int
}

// Subset returns a view of base restricted to indices, in the given order.
// Nested views collapse onto the innermost base set.
func Subset(base Set, indices []int) (*View, error) {
	n := base.NumVectors()
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, errors.NewValidationError("indices", "subset index out of range", idx)
		}
	}
	idx := make([]int, len(indices))
	copy(idx, indices)
	if v, ok := base.(*View); ok {
		for k, i := range idx {
			idx[k] = v.indices[i]
		}
		base = v.base
	}
	return &View{base: base, indices: idx}, nil
}

func (v *View) NumVectors() int     { return len(v.indices) }
func (v *View) Dim() int            { return v.base.Dim() }
func (v *View) Kind() Kind          { return v.base.Kind() }
func (v *View) Vector(i int) Vector { return v.base.Vector(v.indices[i]) }

// Indices returns the positions in the base set that the view selects.
func (v *View) Indices() []int {
	return v.indices
}

// CopySubset materializes the vectors at indices into a new Set of the same kind.
func CopySubset(base Set, indices []int) (Set, error) {
	n := base.NumVectors()
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, errors.NewValidationError("indices", "subset index out of range", idx)
		}
	}
	if base.Kind() == Sparse {
		out := make([]*SparseVector, len(indices))
		for k, idx := range indices {
			out[k] = cloneSparse(base.Vector(idx))
		}
		return &SparseSet{vectors: out, dim: base.Dim()}, nil
	}

	if len(indices) == 0 {
		return nil, errors.NewModelError("features.CopySubset", "empty selection", errors.ErrEmptyData)
	}
	dim := base.Dim()
	data := make([]float64, len(indices)*dim)
	for k, idx := range indices {
		copy(data[k*dim:(k+1)*dim], base.Vector(idx).Dense())
	}
	return &DenseSet{m: mat.NewDense(len(indices), dim, data)}, nil
}

// Merge concatenates a and b into a new Set. Both must share kind and dimensionality.
func Merge(a, b Set) (Set, error) {
	if a.Dim() != b.Dim() {
		return nil, errors.NewDimensionError("features.Merge", a.Dim(), b.Dim(), 1)
	}
	if a.Kind() != b.Kind() {
		return nil, errors.NewConfigErrorf("features.Merge", "cannot merge %s and %s sets", a.Kind(), b.Kind())
	}
	na, nb := a.NumVectors(), b.NumVectors()
	if a.Kind() == Sparse {
		out := make([]*SparseVector, 0, na+nb)
		for i := 0; i < na; i++ {
			out = append(out, cloneSparse(a.Vector(i)))
		}
		for i := 0; i < nb; i++ {
			out = append(out, cloneSparse(b.Vector(i)))
		}
		return &SparseSet{vectors: out, dim: a.Dim()}, nil
	}
	dim := a.Dim()
	m := mat.NewDense(na+nb, dim, nil)
	for i := 0; i < na; i++ {
		m.SetRow(i, a.Vector(i).Dense())
	}
	for i := 0; i < nb; i++ {
		m.SetRow(na+i, b.Vector(i).Dense())
	}
	return &DenseSet{m: m}, nil
}

func cloneSparse(v Vector) *SparseVector {
	if sv, ok := v.(*SparseVector); ok {
		idx := make([]int, len(sv.Indices))
		val := make([]float64, len(sv.Values))
		copy(idx, sv.Indices)
		copy(val, sv.Values)
		return &SparseVector{Indices: idx, Values: val, Dim: sv.Dim}
	}
	d := v.Dense()
	out := &SparseVector{Dim: len(d)}
	for i, x := range d {
		if x != 0 {
			out.Indices = append(out.Indices, i)
			out.Values = append(out.Values, x)
		}
	}
	return out
}
