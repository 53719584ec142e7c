package features

import (
	"slices"

	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
)

// Labels holds one target value per feature vector.
type Labels struct {
	values []float64
}

// NewLabels copies values.
func NewLabels(values []float64) Labels {
	v := make([]float64, len(values))
	copy(v, values)
	return Labels{values: v}
}

// LabelsFromColumn reads the first column of y, the layout used by mat-based estimators.
func LabelsFromColumn(y mat.Matrix) Labels {
	r, _ := y.Dims()
	v := make([]float64, r)
	for i := range v {
		v[i] = y.At(i, 0)
	}
	return Labels{values: v}
}

// Len returns the number of labels.
func (l Labels) Len() int { return len(l.values) }

// At returns label i.
func (l Labels) At(i int) float64 { return l.values[i] }

// Values returns a copy of all labels.
func (l Labels) Values() []float64 {
	v := make([]float64, len(l.values))
	copy(v, l.values)
	return v
}

// Unique returns the distinct labels in ascending order.
func (l Labels) Unique() []float64 {
	out := lo.Uniq(l.values)
	slices.Sort(out)
	return out
}

// NumClasses returns C for multiclass labels, which must be the integers 0..C-1
// with every class present.
func (l Labels) NumClasses() (int, error) {
	uniq := l.Unique()
	for k, v := range uniq {
		if v != float64(k) {
			return 0, errors.NewConfigErrorf("Labels.NumClasses",
				"multiclass labels must be contiguous 0..C-1, found %g at position %d", v, k)
		}
	}
	return len(uniq), nil
}

// Subset returns the labels at indices.
func (l Labels) Subset(indices []int) Labels {
	v := make([]float64, len(indices))
	for k, idx := range indices {
		v[k] = l.values[idx]
	}
	return Labels{values: v}
}

// CheckAligned returns a ConfigError unless the label count matches the set size.
func CheckAligned(op string, X Set, y Labels) error {
	if X == nil {
		return errors.NewConfigError(op, "features are nil")
	}
	if X.NumVectors() != y.Len() {
		return errors.NewConfigErrorf(op, "%d labels for %d feature vectors", y.Len(), X.NumVectors())
	}
	if X.NumVectors() == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	return nil
}

// BinaryEncoding maps two arbitrary label values onto the ±1 encoding used by
// the solvers. Positive is the first label seen in the training data.
type BinaryEncoding struct {
	Positive float64
	Negative float64
}

// Decode returns the original label for a signed decision value.
func (e BinaryEncoding) Decode(decision float64) float64 {
	if decision > 0 {
		return e.Positive
	}
	return e.Negative
}

// Binary converts l to ±1. The first label encountered becomes +1; exactly two
// distinct values must be present.
func (l Labels) Binary() ([]float64, BinaryEncoding, error) {
	if len(l.values) == 0 {
		return nil, BinaryEncoding{}, errors.NewModelError("Labels.Binary", "empty labels", errors.ErrEmptyData)
	}
	enc := BinaryEncoding{Positive: l.values[0]}
	haveNeg := false
	out := make([]float64, len(l.values))
	for i, v := range l.values {
		switch {
		case v == enc.Positive:
			out[i] = 1
		case !haveNeg:
			enc.Negative = v
			haveNeg = true
			out[i] = -1
		case v == enc.Negative:
			out[i] = -1
		default:
			return nil, BinaryEncoding{}, errors.NewConfigErrorf("Labels.Binary",
				"expected two distinct labels, found a third value %g", v)
		}
	}
	if !haveNeg {
		return nil, BinaryEncoding{}, errors.NewConfigErrorf("Labels.Binary",
			"expected two distinct labels, found only %g", enc.Positive)
	}
	return out, enc, nil
}
