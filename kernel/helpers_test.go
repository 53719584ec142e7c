package kernel

import (
	"sync/atomic"

	"github.com/YuminosukeSato/kernelmachine/core/features"
)

type countingFunction struct {
	Function
	calls atomic.Int64
}

func (c *countingFunction) Compute(a, b features.Vector) float64 {
	c.calls.Add(1)
	return c.Function.Compute(a, b)
}
