package kernel

import (
	"math"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"gonum.org/v1/gonum/floats"
)

// Euclidean is the L2 distance.
type Euclidean struct{}

func (Euclidean) Name() string               { return "euclidean" }
func (Euclidean) Params() map[string]float64 { return map[string]float64{} }

func (Euclidean) Compute(a, b features.Vector) float64 {
	return math.Sqrt(features.SquaredDistance(a, b))
}

func (Euclidean) Check(lhs, rhs features.Set) error {
	return checkCompatible("Euclidean.Check", lhs, rhs)
}

// Manhattan is the L1 distance.
type Manhattan struct{}

func (Manhattan) Name() string               { return "manhattan" }
func (Manhattan) Params() map[string]float64 { return map[string]float64{} }

func (Manhattan) Compute(a, b features.Vector) float64 {
	return floats.Distance(a.Dense(), b.Dense(), 1)
}

func (Manhattan) Check(lhs, rhs features.Set) error {
	return checkCompatible("Manhattan.Check", lhs, rhs)
}

// Chebyshev is the L∞ distance.
type Chebyshev struct{}

func (Chebyshev) Name() string               { return "chebyshev" }
func (Chebyshev) Params() map[string]float64 { return map[string]float64{} }

func (Chebyshev) Compute(a, b features.Vector) float64 {
	return floats.Distance(a.Dense(), b.Dense(), math.Inf(1))
}

func (Chebyshev) Check(lhs, rhs features.Set) error {
	return checkCompatible("Chebyshev.Check", lhs, rhs)
}
