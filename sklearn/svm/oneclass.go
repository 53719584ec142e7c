package svm

import (
	"context"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
)

// OneClassSVM estimates the support of a distribution (Schölkopf et al.).
// Predict returns +1 for inliers and -1 for outliers.
type OneClassSVM struct {
	machine
}

// NewOneClassSVM creates a OneClassSVM with ν = 0.5.
func NewOneClassSVM(opts ...Option) *OneClassSVM {
	return &OneClassSVM{machine: newMachine("OneClassSVM", opts)}
}

// Fit trains on unlabeled vectors.
func (o *OneClassSVM) Fit(ctx context.Context, X features.Set) (err error) {
	defer errors.Recover(&err, "OneClassSVM.Fit")
	const op = "OneClassSVM.Fit"
	o.state.Reset()

	if err := o.validateConfig(op); err != nil {
		return err
	}
	if !(o.cfg.nu > 0 && o.cfg.nu <= 1) {
		return errors.NewConfigErrorf(op, "nu must be in (0, 1], got %g", o.cfg.nu)
	}
	if X == nil {
		return errors.NewConfigError(op, "features are nil")
	}
	l := X.NumVectors()
	if l == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	sess, err := o.bind(X)
	if err != nil {
		return err
	}

	// Σα = ν·l with α_i ∈ [0, 1]: the first ⌊ν·l⌋ variables at the bound.
	alpha := make([]float64, l)
	total := o.cfg.nu * float64(l)
	n := int(total)
	for i := 0; i < n && i < l; i++ {
		alpha[i] = 1
	}
	if n < l {
		alpha[n] = total - float64(n)
	}
	y := make([]float64, l)
	for i := range y {
		y[i] = 1
	}
	prob := Problem{
		Q:     newOneClassQ(sess, l, o.cfg.cacheSizeMB),
		P:     make([]float64, l),
		Y:     y,
		Alpha: alpha,
		Cp:    1,
		Cn:    1,
	}
	sol, err := o.train(ctx, sess, prob)
	if err != nil {
		return err
	}
	o.commit(sess, ExtractModel(sol, y, 1, o.cfg.svEpsilon), sol)
	return nil
}

// DecisionFunction returns positive values inside the estimated support.
func (o *OneClassSVM) DecisionFunction(X features.Set) ([]float64, error) {
	return o.decision("DecisionFunction", X)
}

// Predict returns +1 for inliers and -1 for outliers.
func (o *OneClassSVM) Predict(X features.Set) ([]float64, error) {
	dec, err := o.decision("Predict", X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(dec))
	for i, d := range dec {
		if d > 0 {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out, nil
}
