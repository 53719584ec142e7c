package svm

import (
	"math"

	"github.com/YuminosukeSato/kernelmachine/core/parallel"
	"github.com/YuminosukeSato/kernelmachine/kernel"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
)

// DefaultSVEpsilon is the magnitude below which a dual coefficient is
// treated as zero during extraction.
const DefaultSVEpsilon = 1e-12

// Model is a trained decision function
//
//	f(x) = Σ coef_i · k(sv_i, x) + bias
//
// Support-vector indices refer to the lhs of the kernel session the model
// is evaluated with. A Model never changes after construction.
type Model struct {
	indices []int
	coefs   []float64
	bias    float64
}

// ExtractModel keeps every variable with |α_i| > svEpsilon. Coefficients
// are sgn·α_i·y_i and the bias is -sgn·ρ, where sgn = ±1 orients the
// decision function with respect to the solver's internal labels.
func ExtractModel(sol *Solution, y []float64, sgn, svEpsilon float64) *Model {
	m := &Model{bias: -sgn * sol.Rho}
	for i, a := range sol.Alpha {
		if math.Abs(a) > svEpsilon {
			m.indices = append(m.indices, i)
			m.coefs = append(m.coefs, sgn*a*y[i])
		}
	}
	return m
}

// extractRegressionModel folds the 2l epsilon-SVR variables into
// coefficients α_i - α*_i.
func extractRegressionModel(sol *Solution, svEpsilon float64) *Model {
	l := len(sol.Alpha) / 2
	m := &Model{bias: -sol.Rho}
	for i := 0; i < l; i++ {
		c := sol.Alpha[i] - sol.Alpha[i+l]
		if math.Abs(c) > svEpsilon {
			m.indices = append(m.indices, i)
			m.coefs = append(m.coefs, c)
		}
	}
	return m
}

// NewModelFromParts rebuilds a Model from its persisted triple.
func NewModelFromParts(indices []int, coefs []float64, bias float64) (*Model, error) {
	if len(indices) != len(coefs) {
		return nil, errors.NewConfigErrorf("svm.NewModelFromParts",
			"%d support vectors but %d coefficients", len(indices), len(coefs))
	}
	for _, idx := range indices {
		if idx < 0 {
			return nil, errors.NewConfigErrorf("svm.NewModelFromParts", "negative support vector index %d", idx)
		}
	}
	return &Model{
		indices: append([]int(nil), indices...),
		coefs:   append([]float64(nil), coefs...),
		bias:    bias,
	}, nil
}

// GetSupportVectors returns the support-vector indices.
func (m *Model) GetSupportVectors() []int { return append([]int(nil), m.indices...) }

// GetAlphas returns the signed coefficients, aligned with GetSupportVectors.
func (m *Model) GetAlphas() []float64 { return append([]float64(nil), m.coefs...) }

// GetBias returns the bias term.
func (m *Model) GetBias() float64 { return m.bias }

// NumSupportVectors returns the number of support vectors.
func (m *Model) NumSupportVectors() int { return len(m.indices) }

// DecisionValue evaluates f on rhs vector j of sess.
func (m *Model) DecisionValue(sess *kernel.Session, j int) float64 {
	sum := m.bias
	for k, idx := range m.indices {
		sum += m.coefs[k] * sess.Get(idx, j)
	}
	return sum
}

// DecisionValues evaluates f on every rhs vector of sess in parallel.
func (m *Model) DecisionValues(sess *kernel.Session) ([]float64, error) {
	if !sess.Bound() {
		return nil, errors.NewConfigError("Model.DecisionValues", errors.ErrUnboundSession.Error())
	}
	if n := sess.LHS().NumVectors(); len(m.indices) > 0 && m.maxIndex() >= n {
		return nil, errors.NewInternalConsistencyError("Model.DecisionValues",
			"support vector index %d outside lhs of %d vectors", m.maxIndex(), n)
	}
	out := make([]float64, sess.RHS().NumVectors())
	parallel.ParallelizeWithThreshold(len(out), 64, func(start, end int) {
		for j := start; j < end; j++ {
			out[j] = m.DecisionValue(sess, j)
		}
	})
	return out, nil
}

func (m *Model) maxIndex() int {
	hi := -1
	for _, idx := range m.indices {
		hi = max(hi, idx)
	}
	return hi
}

// Remap returns a copy of m whose support-vector indices are translated
// through lookup. Every index must be present; a missing one is an
// InternalConsistencyError.
func (m *Model) Remap(lookup map[int]int) (*Model, error) {
	out := &Model{
		indices: make([]int, len(m.indices)),
		coefs:   append([]float64(nil), m.coefs...),
		bias:    m.bias,
	}
	for k, idx := range m.indices {
		to, ok := lookup[idx]
		if !ok {
			return nil, errors.NewInternalConsistencyError("Model.Remap",
				"support vector %d has no slot in the compacted set", idx)
		}
		out.indices[k] = to
	}
	return out, nil
}

// TranslateIndices returns a copy of m with index k replaced by table[k].
// It lifts a model trained on a subset view back to the view's base set.
func (m *Model) TranslateIndices(table []int) (*Model, error) {
	out := &Model{
		indices: make([]int, len(m.indices)),
		coefs:   append([]float64(nil), m.coefs...),
		bias:    m.bias,
	}
	for k, idx := range m.indices {
		if idx < 0 || idx >= len(table) {
			return nil, errors.NewInternalConsistencyError("Model.TranslateIndices",
				"support vector %d outside translation table of %d entries", idx, len(table))
		}
		out.indices[k] = table[idx]
	}
	return out, nil
}
