package kernel

import (
	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Precomputed looks kernel values up in a user-supplied matrix. Feature
// vectors are one-dimensional and hold the row (lhs) or column (rhs) index
// into Values; IndexSet builds such a set.
type Precomputed struct {
	Values mat.Matrix
}

func (Precomputed) Name() string               { return "precomputed" }
func (Precomputed) Params() map[string]float64 { return map[string]float64{} }

func (k Precomputed) Compute(a, b features.Vector) float64 {
	return k.Values.At(int(a.Dense()[0]), int(b.Dense()[0]))
}

func (k Precomputed) Check(lhs, rhs features.Set) error {
	const op = "Precomputed.Check"
	if k.Values == nil {
		return errors.NewConfigError(op, "values matrix is nil")
	}
	if err := checkCompatible(op, lhs, rhs); err != nil {
		return err
	}
	if lhs.Dim() != 1 {
		return errors.NewConfigErrorf(op, "index vectors must be one-dimensional, got %d", lhs.Dim())
	}
	r, c := k.Values.Dims()
	if err := checkIndexRange(op, lhs, r); err != nil {
		return err
	}
	return checkIndexRange(op, rhs, c)
}

func checkIndexRange(op string, s features.Set, limit int) error {
	for i := 0; i < s.NumVectors(); i++ {
		idx := s.Vector(i).Dense()[0]
		if idx < 0 || int(idx) >= limit || idx != float64(int(idx)) {
			return errors.NewConfigErrorf(op, "vector %d holds index %g outside [0, %d)", i, idx, limit)
		}
	}
	return nil
}

// IndexSet returns the n×1 set 0, 1, ..., n-1 used with Precomputed.
func IndexSet(n int) *features.DenseSet {
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i)
	}
	return features.NewDenseSet(mat.NewDense(n, 1, data))
}
