package svm

import (
	"context"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/metrics"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
)

// SVC is a binary C-support vector classifier.
//
// Labels may be any two distinct values. Internally the first label seen
// is encoded as +1; the fitted model is oriented so that a positive
// decision value predicts the larger label.
type SVC struct {
	machine

	classes []float64 // [smaller, larger]
}

// NewSVC creates an SVC with C=1, an RBF kernel with gamma 1/dim,
// tolerance 1e-3, shrinking on and a 100 MB column cache.
func NewSVC(opts ...Option) *SVC {
	return &SVC{machine: newMachine("SVC", opts)}
}

// Fit trains the classifier. On error the SVC is left unfitted.
func (s *SVC) Fit(ctx context.Context, X features.Set, y features.Labels) (err error) {
	defer errors.Recover(&err, "SVC.Fit")
	const op = "SVC.Fit"
	s.state.Reset()

	if err := s.validateConfig(op); err != nil {
		return err
	}
	if err := features.CheckAligned(op, X, y); err != nil {
		return err
	}
	signs, enc, err := y.Binary()
	if err != nil {
		return err
	}
	n := len(signs)
	if s.cfg.linearTerm != nil && len(s.cfg.linearTerm) != n {
		return errors.NewConfigErrorf(op, "linear term has %d entries for %d samples", len(s.cfg.linearTerm), n)
	}

	sess, err := s.bind(X)
	if err != nil {
		return err
	}
	p := make([]float64, n)
	for i := range p {
		p[i] = -1
		if s.cfg.linearTerm != nil {
			p[i] += s.cfg.linearTerm[i]
		}
	}
	prob := Problem{
		Q:  newSVCQ(sess, signs, s.cfg.cacheSizeMB),
		P:  p,
		Y:  signs,
		Cp: s.cfg.c * s.classWeight(enc.Positive),
		Cn: s.cfg.c * s.classWeight(enc.Negative),
	}
	sol, err := s.train(ctx, sess, prob)
	if err != nil {
		return err
	}

	sgn := 1.0
	s.classes = []float64{enc.Negative, enc.Positive}
	if enc.Positive < enc.Negative {
		sgn = -1
		s.classes = []float64{enc.Positive, enc.Negative}
	}
	s.commit(sess, ExtractModel(sol, signs, sgn, s.cfg.svEpsilon), sol)
	return nil
}

func (s *SVC) classWeight(label float64) float64 {
	if w, ok := s.cfg.classWeights[label]; ok {
		return w
	}
	return 1
}

// DecisionFunction returns the signed distance-like score per vector;
// positive values predict Classes()[1].
func (s *SVC) DecisionFunction(X features.Set) ([]float64, error) {
	return s.decision("DecisionFunction", X)
}

// Predict returns the predicted label per vector.
func (s *SVC) Predict(X features.Set) ([]float64, error) {
	dec, err := s.decision("Predict", X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(dec))
	for i, d := range dec {
		if d > 0 {
			out[i] = s.classes[1]
		} else {
			out[i] = s.classes[0]
		}
	}
	return out, nil
}

// Score returns the accuracy on (X, y).
func (s *SVC) Score(X features.Set, y features.Labels) (float64, error) {
	if err := features.CheckAligned("SVC.Score", X, y); err != nil {
		return 0, err
	}
	pred, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y.Values(), pred)
}

// Classes returns the two labels in ascending order.
func (s *SVC) Classes() []float64 {
	return append([]float64(nil), s.classes...)
}
