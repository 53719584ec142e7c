package multiclass

import (
	"github.com/YuminosukeSato/kernelmachine/pkg/log"
	"github.com/YuminosukeSato/kernelmachine/sklearn/svm"
)

// Strategy selects how a C-class problem is decomposed into binary ones.
type Strategy int

const (
	// OneVsRest trains C machines, class k against all others.
	OneVsRest Strategy = iota
	// OneVsOne trains C(C-1)/2 machines, one per pair of classes.
	OneVsOne
)

func (s Strategy) String() string {
	switch s {
	case OneVsRest:
		return "OneVsRest"
	case OneVsOne:
		return "OneVsOne"
	default:
		return "Unknown"
	}
}

// ParseStrategy is the inverse of Strategy.String.
func ParseStrategy(name string) (Strategy, bool) {
	switch name {
	case "OneVsRest":
		return OneVsRest, true
	case "OneVsOne":
		return OneVsOne, true
	default:
		return 0, false
	}
}

// Factory returns a fresh, unfitted binary classifier for one submachine.
type Factory func() *svm.SVC

// Option configures an Ensemble.
type Option func(*Ensemble)

// WithMaxConcurrency bounds the number of submachines trained at once.
// Zero or negative means one per CPU.
func WithMaxConcurrency(n int) Option {
	return func(e *Ensemble) { e.maxConcurrency = n }
}

// WithLogger sets the ensemble's logger.
func WithLogger(logger log.Logger) Option {
	return func(e *Ensemble) { e.logger = logger }
}
