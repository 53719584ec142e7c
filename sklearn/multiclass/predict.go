package multiclass

import (
	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/metrics"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DecisionValues returns an n×M matrix holding every submachine's decision
// value for every vector of X, M being NumSubmachines. For one-vs-one,
// column order is (0,1), (0,2), ..., (1,2), ... and a positive value favours
// the larger class of the pair.
func (e *Ensemble) DecisionValues(X features.Set) (*mat.Dense, error) {
	op := e.strategy.String() + ".DecisionValues"
	if err := e.state.RequireFitted(e.strategy.String(), "DecisionValues"); err != nil {
		return nil, err
	}
	if X == nil || X.NumVectors() == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	nFeatures, _ := e.state.GetDimensions()
	if X.Dim() != nFeatures {
		return nil, errors.NewDimensionError(op, nFeatures, X.Dim(), 1)
	}

	n := X.NumVectors()
	out := mat.NewDense(n, len(e.models), nil)
	if e.session == nil {
		for m, mdl := range e.models {
			for j := 0; j < n; j++ {
				out.Set(j, m, mdl.GetBias())
			}
		}
		return out, nil
	}

	sess, err := e.session.Rebind(e.session.LHS(), X)
	if err != nil {
		return nil, err
	}
	for m, mdl := range e.models {
		vals, err := mdl.DecisionValues(sess)
		if err != nil {
			return nil, err
		}
		out.SetCol(m, vals)
	}
	return out, nil
}

// Predict returns the predicted class per vector. One-vs-rest takes the
// submachine with the largest decision value; one-vs-one takes the class
// with the most pairwise wins. Ties go to the lower class.
func (e *Ensemble) Predict(X features.Set) ([]float64, error) {
	dec, err := e.DecisionValues(X)
	if err != nil {
		return nil, err
	}
	n, _ := dec.Dims()
	out := make([]float64, n)
	votes := make([]float64, e.numClasses)
	for j := 0; j < n; j++ {
		row := dec.RawRowView(j)
		if e.strategy == OneVsRest {
			out[j] = float64(floats.MaxIdx(row))
			continue
		}
		for k := range votes {
			votes[k] = 0
		}
		for m, t := range e.tasks {
			if row[m] > 0 {
				votes[t.pos]++
			} else {
				votes[t.neg]++
			}
		}
		out[j] = float64(floats.MaxIdx(votes))
	}
	return out, nil
}

// Score returns the accuracy on (X, y).
func (e *Ensemble) Score(X features.Set, y features.Labels) (float64, error) {
	if err := features.CheckAligned(e.strategy.String()+".Score", X, y); err != nil {
		return 0, err
	}
	pred, err := e.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y.Values(), pred)
}

// Classes returns 0..C-1.
func (e *Ensemble) Classes() []float64 {
	out := make([]float64, e.numClasses)
	for k := range out {
		out[k] = float64(k)
	}
	return out
}
