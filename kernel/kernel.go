package kernel

import (
	"math"
	"strconv"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
)

// Function is a pairwise similarity or distance.
type Function interface {
	// Name identifies the function in logs and persisted models.
	Name() string
	// Compute evaluates the function on a pair of vectors. It must be pure.
	Compute(a, b features.Vector) float64
	// Check validates that lhs and rhs can be fed to Compute.
	Check(lhs, rhs features.Set) error
	// Params returns the hyperparameters, keyed by name.
	Params() map[string]float64
}

func checkCompatible(op string, lhs, rhs features.Set) error {
	if lhs == nil || rhs == nil {
		return errors.NewConfigError(op, "features are nil")
	}
	if lhs.Dim() != rhs.Dim() {
		return errors.NewConfigErrorf(op, "dimension mismatch: lhs has %d, rhs has %d", lhs.Dim(), rhs.Dim())
	}
	return nil
}

// Linear is the inner product <a, b>.
type Linear struct{}

func (Linear) Name() string                         { return "linear" }
func (Linear) Compute(a, b features.Vector) float64 { return a.Dot(b) }
func (Linear) Params() map[string]float64           { return map[string]float64{} }
func (Linear) Check(lhs, rhs features.Set) error {
	return checkCompatible("Linear.Check", lhs, rhs)
}

// Polynomial is (Gamma·<a, b> + Coef0)^Degree.
type Polynomial struct {
	Degree int
	Gamma  float64
	Coef0  float64
}

func (Polynomial) Name() string { return "polynomial" }

func (k Polynomial) Compute(a, b features.Vector) float64 {
	return powi(k.Gamma*a.Dot(b)+k.Coef0, k.Degree)
}

func (k Polynomial) Params() map[string]float64 {
	return map[string]float64{"degree": float64(k.Degree), "gamma": k.Gamma, "coef0": k.Coef0}
}

func (k Polynomial) Check(lhs, rhs features.Set) error {
	if k.Degree < 1 {
		return errors.NewConfigErrorf("Polynomial.Check", "degree must be >= 1, got %d", k.Degree)
	}
	return checkCompatible("Polynomial.Check", lhs, rhs)
}

// powi computes base^n by repeated squaring.
func powi(base float64, n int) float64 {
	ret := 1.0
	for t := n; t > 0; t /= 2 {
		if t%2 == 1 {
			ret *= base
		}
		base *= base
	}
	return ret
}

// Gaussian is the RBF kernel exp(-Gamma·||a-b||²).
type Gaussian struct {
	Gamma float64
}

func (Gaussian) Name() string { return "gaussian" }

func (k Gaussian) Compute(a, b features.Vector) float64 {
	return math.Exp(-k.Gamma * features.SquaredDistance(a, b))
}

func (k Gaussian) Params() map[string]float64 { return map[string]float64{"gamma": k.Gamma} }

func (k Gaussian) Check(lhs, rhs features.Set) error {
	if !(k.Gamma > 0) {
		return errors.NewConfigErrorf("Gaussian.Check", "gamma must be positive, got %g", k.Gamma)
	}
	return checkCompatible("Gaussian.Check", lhs, rhs)
}

// Sigmoid is tanh(Gamma·<a, b> + Coef0).
type Sigmoid struct {
	Gamma float64
	Coef0 float64
}

func (Sigmoid) Name() string { return "sigmoid" }

func (k Sigmoid) Compute(a, b features.Vector) float64 {
	return math.Tanh(k.Gamma*a.Dot(b) + k.Coef0)
}

func (k Sigmoid) Params() map[string]float64 {
	return map[string]float64{"gamma": k.Gamma, "coef0": k.Coef0}
}

func (k Sigmoid) Check(lhs, rhs features.Set) error {
	return checkCompatible("Sigmoid.Check", lhs, rhs)
}

// Tanimoto is the normalized overlap <a,b> / (||a||² + ||b||² - <a,b>).
// A pair of zero vectors has no defined similarity and evaluates to 0.
// Check reports a single NumericalWarning when the bound sets can produce
// such a pair.
type Tanimoto struct{}

func (Tanimoto) Name() string               { return "tanimoto" }
func (Tanimoto) Params() map[string]float64 { return map[string]float64{} }

func (Tanimoto) Compute(a, b features.Vector) float64 {
	dot := a.Dot(b)
	denom := a.SquaredNorm() + b.SquaredNorm() - dot
	if denom == 0 {
		return 0
	}
	return dot / denom
}

func (Tanimoto) Check(lhs, rhs features.Set) error {
	if err := checkCompatible("Tanimoto.Check", lhs, rhs); err != nil {
		return err
	}
	// the denominator vanishes only when both vectors are zero
	if hasZeroVector(lhs) && hasZeroVector(rhs) {
		errors.Warn(errors.NewNumericalWarning("Tanimoto.Check",
			"zero-norm feature vectors present, their pairs evaluate to 0"))
	}
	return nil
}

func hasZeroVector(set features.Set) bool {
	for i := 0; i < set.NumVectors(); i++ {
		if set.Vector(i).SquaredNorm() == 0 {
			return true
		}
	}
	return false
}

// FromSpec rebuilds a Function from the name and parameters reported by
// Name and Params. Precomputed kernels cannot be rebuilt this way.
func FromSpec(name string, params map[string]float64) (Function, error) {
	switch name {
	case "linear":
		return Linear{}, nil
	case "polynomial":
		return Polynomial{Degree: int(params["degree"]), Gamma: params["gamma"], Coef0: params["coef0"]}, nil
	case "gaussian":
		return Gaussian{Gamma: params["gamma"]}, nil
	case "sigmoid":
		return Sigmoid{Gamma: params["gamma"], Coef0: params["coef0"]}, nil
	case "tanimoto":
		return Tanimoto{}, nil
	case "euclidean":
		return Euclidean{}, nil
	case "manhattan":
		return Manhattan{}, nil
	case "chebyshev":
		return Chebyshev{}, nil
	default:
		return nil, errors.NewConfigError("kernel.FromSpec", "unknown kernel "+strconv.Quote(name))
	}
}
