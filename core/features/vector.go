package features

import (
	"gonum.org/v1/gonum/floats"
)

// Kind identifies the storage representation of a Set.
type Kind int

const (
	// Dense vectors store every component.
	Dense Kind = iota
	// Sparse vectors store sorted (index, value) pairs.
	Sparse
)

func (k Kind) String() string {
	switch k {
	case Dense:
		return "dense"
	case Sparse:
		return "sparse"
	default:
		return "unknown"
	}
}

// Vector is a read-only feature vector.
type Vector interface {
	// Len returns the dimensionality.
	Len() int
	// Dense returns the components as a dense slice. Callers must not modify it.
	Dense() []float64
	// Dot returns the inner product with other.
	Dot(other Vector) float64
	// SquaredNorm returns the squared Euclidean norm.
	SquaredNorm() float64
}

// DenseVector is a Vector backed by a plain slice.
type DenseVector []float64

func (v DenseVector) Len() int         { return len(v) }
func (v DenseVector) Dense() []float64 { return v }

func (v DenseVector) Dot(other Vector) float64 {
	switch o := other.(type) {
	case DenseVector:
		return floats.Dot(v, o)
	case *SparseVector:
		return o.Dot(v)
	default:
		return floats.Dot(v, other.Dense())
	}
}

func (v DenseVector) SquaredNorm() float64 {
	return floats.Dot(v, v)
}

// SparseVector stores non-zero components sorted by index.
type SparseVector struct {
	Indices []int
	Values  []float64
	Dim     int
}

// NewSparseVector builds a SparseVector from parallel index and value slices.
// Indices must be strictly increasing and below dim.
func NewSparseVector(dim int, indices []int, values []float64) *SparseVector {
	return &SparseVector{Indices: indices, Values: values, Dim: dim}
}

func (v *SparseVector) Len() int { return v.Dim }

func (v *SparseVector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for k, idx := range v.Indices {
		out[idx] = v.Values[k]
	}
	return out
}

func (v *SparseVector) Dot(other Vector) float64 {
	switch o := other.(type) {
	case *SparseVector:
		return sparseDot(v, o)
	case DenseVector:
		var sum float64
		for k, idx := range v.Indices {
			sum += v.Values[k] * o[idx]
		}
		return sum
	default:
		d := other.Dense()
		var sum float64
		for k, idx := range v.Indices {
			sum += v.Values[k] * d[idx]
		}
		return sum
	}
}

func (v *SparseVector) SquaredNorm() float64 {
	return floats.Dot(v.Values, v.Values)
}

// sparseDot merges two sorted index lists.
func sparseDot(x, y *SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(x.Indices) && j < len(y.Indices) {
		switch {
		case x.Indices[i] == y.Indices[j]:
			sum += x.Values[i] * y.Values[j]
			i++
			j++
		case x.Indices[i] > y.Indices[j]:
			j++
		default:
			i++
		}
	}
	return sum
}

// SquaredDistance returns ||a-b||² without materializing a difference vector.
func SquaredDistance(a, b Vector) float64 {
	if da, ok := a.(DenseVector); ok {
		if db, ok := b.(DenseVector); ok {
			d := floats.Distance(da, db, 2)
			return d * d
		}
	}
	d := a.SquaredNorm() + b.SquaredNorm() - 2*a.Dot(b)
	if d < 0 {
		return 0
	}
	return d
}
