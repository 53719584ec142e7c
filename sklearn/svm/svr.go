package svm

import (
	"context"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/metrics"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
)

// SVR is epsilon-support vector regression. The 2l dual variables (α, α*)
// are solved as one problem over a sign-folded kernel matrix.
type SVR struct {
	machine
}

// NewSVR creates an SVR with C=1 and a tube width of 0.1.
func NewSVR(opts ...Option) *SVR {
	return &SVR{machine: newMachine("SVR", opts)}
}

// Fit trains on real-valued targets y.
func (r *SVR) Fit(ctx context.Context, X features.Set, y features.Labels) (err error) {
	defer errors.Recover(&err, "SVR.Fit")
	const op = "SVR.Fit"
	r.state.Reset()

	if err := r.validateConfig(op); err != nil {
		return err
	}
	if r.cfg.epsilonSVR < 0 {
		return errors.NewConfigErrorf(op, "epsilon must be non-negative, got %g", r.cfg.epsilonSVR)
	}
	if _, err := metrics.GetScorer(r.cfg.scoring); err != nil {
		return err
	}
	if err := features.CheckAligned(op, X, y); err != nil {
		return err
	}
	l := y.Len()
	sess, err := r.bind(X)
	if err != nil {
		return err
	}

	p := make([]float64, 2*l)
	signs := make([]float64, 2*l)
	for i := 0; i < l; i++ {
		p[i] = r.cfg.epsilonSVR - y.At(i)
		p[i+l] = r.cfg.epsilonSVR + y.At(i)
		signs[i] = 1
		signs[i+l] = -1
	}
	prob := Problem{
		Q:  newSVRQ(sess, l, r.cfg.cacheSizeMB),
		P:  p,
		Y:  signs,
		Cp: r.cfg.c,
		Cn: r.cfg.c,
	}
	sol, err := r.train(ctx, sess, prob)
	if err != nil {
		return err
	}
	r.commit(sess, extractRegressionModel(sol, r.cfg.svEpsilon), sol)
	return nil
}

// Predict returns the regression estimate per vector.
func (r *SVR) Predict(X features.Set) ([]float64, error) {
	return r.decision("Predict", X)
}

// Score evaluates the predictions on (X, y) with the WithScoring metric,
// the coefficient of determination R² by default.
func (r *SVR) Score(X features.Set, y features.Labels) (float64, error) {
	if err := features.CheckAligned("SVR.Score", X, y); err != nil {
		return 0, err
	}
	pred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.ScoreSlices(r.cfg.scoring, y.Values(), pred)
}
