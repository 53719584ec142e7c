package svm

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/YuminosukeSato/kernelmachine/kernel"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// denseQ is an in-memory QMatrix for hand-built problems.
type denseQ struct {
	q  [][]float64
	qd []float64
}

func newDenseQ(q [][]float64) *denseQ {
	d := &denseQ{q: q, qd: make([]float64, len(q))}
	for i := range q {
		d.qd[i] = q[i][i]
	}
	return d
}

func (d *denseQ) Column(i, length int) []float64 { return d.q[i][:length] }
func (d *denseQ) Diagonal() []float64            { return d.qd }
func (d *denseQ) SwapIndex(i, j int) {
	d.q[i], d.q[j] = d.q[j], d.q[i]
	for _, row := range d.q {
		row[i], row[j] = row[j], row[i]
	}
	d.qd[i], d.qd[j] = d.qd[j], d.qd[i]
}

func TestSolveTwoPoints(t *testing.T) {
	// x = +1 labelled +1 and x = -1 labelled -1 under a linear kernel.
	prob := Problem{
		Q:  newDenseQ([][]float64{{1, 1}, {1, 1}}),
		P:  []float64{-1, -1},
		Y:  []float64{1, -1},
		Cp: 10,
		Cn: 10,
	}
	sol, err := Solve(context.Background(), prob, SolverConfig{Eps: 1e-6})
	require.NoError(t, err)

	assert.True(t, sol.Converged)
	assert.InDelta(t, 0.5, sol.Alpha[0], 1e-9)
	assert.InDelta(t, 0.5, sol.Alpha[1], 1e-9)
	assert.InDelta(t, 0.0, sol.Rho, 1e-9)
	assert.InDelta(t, -0.5, sol.Objective, 1e-9)
	assert.Equal(t, 1, sol.Iterations)
}

func TestSolveRespectsInitialAlpha(t *testing.T) {
	// Σα is fixed by the equality constraint when all labels agree.
	prob := Problem{
		Q:     newDenseQ([][]float64{{2, 0, 0}, {0, 2, 0}, {0, 0, 2}}),
		P:     make([]float64, 3),
		Y:     []float64{1, 1, 1},
		Alpha: []float64{1, 0.5, 0},
		Cp:    1,
		Cn:    1,
	}
	sol, err := Solve(context.Background(), prob, SolverConfig{Eps: 1e-8})
	require.NoError(t, err)

	sum := 0.0
	for _, a := range sol.Alpha {
		sum += a
		assert.GreaterOrEqual(t, a, 0.0)
		assert.LessOrEqual(t, a, 1.0)
	}
	assert.InDelta(t, 1.5, sum, 1e-12)
	for _, a := range sol.Alpha {
		assert.InDelta(t, 0.5, a, 1e-6)
	}
}

func TestSolveValidation(t *testing.T) {
	good := func() Problem {
		return Problem{
			Q:  newDenseQ([][]float64{{1, 0}, {0, 1}}),
			P:  []float64{-1, -1},
			Y:  []float64{1, -1},
			Cp: 1,
			Cn: 1,
		}
	}
	tests := []struct {
		name   string
		mutate func(p *Problem, cfg *SolverConfig)
	}{
		{"nil Q", func(p *Problem, _ *SolverConfig) { p.Q = nil }},
		{"label not ±1", func(p *Problem, _ *SolverConfig) { p.Y = []float64{1, 0} }},
		{"short linear term", func(p *Problem, _ *SolverConfig) { p.P = []float64{-1} }},
		{"alpha above bound", func(p *Problem, _ *SolverConfig) { p.Alpha = []float64{2, 0} }},
		{"zero bound", func(p *Problem, _ *SolverConfig) { p.Cn = 0 }},
		{"zero tolerance", func(_ *Problem, cfg *SolverConfig) { cfg.Eps = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := good()
			cfg := SolverConfig{Eps: 1e-3}
			tt.mutate(&p, &cfg)
			_, err := Solve(context.Background(), p, cfg)
			var cfgErr *errors.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}

	_, err := Solve(context.Background(), Problem{Q: newDenseQ(nil), Cp: 1, Cn: 1}, SolverConfig{Eps: 1e-3})
	assert.ErrorIs(t, err, errors.ErrEmptyData)
}

func TestSolverKKTFeasibility(t *testing.T) {
	X, y := overlapping(t)
	svc := NewSVC(WithC(0.5))
	require.NoError(t, svc.Fit(context.Background(), X, y))

	signs, _, err := y.Binary()
	require.NoError(t, err)
	sol := svc.Solution()
	require.NotNil(t, sol)
	assert.True(t, sol.Converged)

	var balance float64
	for i, a := range sol.Alpha {
		assert.GreaterOrEqual(t, a, 0.0)
		assert.LessOrEqual(t, a, 0.5)
		balance += a * signs[i]
	}
	assert.Less(t, math.Abs(balance), 1e-6)
}

func TestSolverShrinkingAgrees(t *testing.T) {
	X, y := overlapping(t)
	ctx := context.Background()

	on := NewSVC(WithShrinking(true), WithEpsilon(1e-4))
	off := NewSVC(WithShrinking(false), WithEpsilon(1e-4))
	require.NoError(t, on.Fit(ctx, X, y))
	require.NoError(t, off.Fit(ctx, X, y))

	assert.InEpsilon(t, off.Solution().Objective, on.Solution().Objective, 1e-3)
	assert.InDelta(t, off.Model().GetBias(), on.Model().GetBias(), 1e-2)

	predOn, err := on.Predict(X)
	require.NoError(t, err)
	predOff, err := off.Predict(X)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, agreement(predOn, predOff), 0.98)
}

func TestSolverIterationCapWarns(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	X, y := overlapping(t)
	svc := NewSVC(WithMaxIter(1))
	require.NoError(t, svc.Fit(context.Background(), X, y))

	assert.True(t, svc.IsFitted())
	assert.False(t, svc.Converged())
	assert.Equal(t, 1, svc.Solution().Iterations)
	require.NotEmpty(t, warnings)
	var cw *errors.ConvergenceWarning
	assert.ErrorAs(t, warnings[0], &cw)

	_, err := svc.Predict(X)
	assert.NoError(t, err)
}

func TestSolverContext(t *testing.T) {
	X, y := overlapping(t)

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc := NewSVC()
		err := svc.Fit(ctx, X, y)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, svc.IsFitted())
	})

	t.Run("deadline stops softly", func(t *testing.T) {
		errors.SetWarningHandler(func(error) {})
		defer errors.SetWarningHandler(nil)

		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()
		svc := NewSVC()
		require.NoError(t, svc.Fit(ctx, X, y))
		assert.True(t, svc.IsFitted())
		assert.False(t, svc.Converged())
		assert.Equal(t, 0, svc.Solution().Iterations)
	})
}

func TestSolverZeroVectors(t *testing.T) {
	// K is identically zero, so every pair has zero curvature.
	X, y := zeroVectors(t)
	svc := NewSVC(WithKernel(kernel.Linear{}))
	require.NoError(t, svc.Fit(context.Background(), X, y))

	for _, a := range svc.Solution().Alpha {
		assert.False(t, math.IsNaN(a))
		assert.GreaterOrEqual(t, a, 0.0)
		assert.LessOrEqual(t, a, 1.0)
	}
	dec, err := svc.DecisionFunction(X)
	require.NoError(t, err)
	for _, d := range dec {
		assert.False(t, math.IsNaN(d) || math.IsInf(d, 0))
	}
}

func TestDefaultMaxIter(t *testing.T) {
	assert.Equal(t, 10_000_000, DefaultMaxIter(10))
	assert.Equal(t, 100*200_000, DefaultMaxIter(200_000))
	assert.Equal(t, math.MaxInt32, DefaultMaxIter(math.MaxInt32))
}
