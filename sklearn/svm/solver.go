package svm

import (
	"context"
	"math"
	"time"

	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"github.com/YuminosukeSato/kernelmachine/pkg/log"
)

const (
	// tau replaces non-positive curvature in the two-variable subproblem.
	tau = 1e-12

	// shrinkInterval caps the number of iterations between shrinking passes.
	shrinkInterval = 1000
)

type alphaStatus int8

const (
	lowerBound alphaStatus = iota
	upperBound
	freeVar
)

// Problem is one instance of the dual QP
//
//	min ½ αᵀQα + pᵀα  s.t.  yᵀα = yᵀα⁰,  0 ≤ α_i ≤ C_i
//
// with C_i = Cp for y_i = +1 and Cn for y_i = -1.
type Problem struct {
	Q QMatrix
	// P is the linear term.
	P []float64
	// Y holds ±1 per variable.
	Y []float64
	// Alpha is a feasible starting point; nil means all zeros.
	Alpha  []float64
	Cp, Cn float64
}

// SolverConfig controls termination and shrinking.
type SolverConfig struct {
	// Eps is the tolerance on the maximal KKT violation.
	Eps float64
	// Shrinking enables the shrinking heuristic.
	Shrinking bool
	// MaxIter caps iterations; zero selects max(10,000,000, 100·l).
	MaxIter int
	// MaxTrainTime is a soft wall-clock budget, polled once per iteration.
	MaxTrainTime time.Duration
	Logger       log.Logger
}

// Solution is the solver output, indexed like the Problem.
type Solution struct {
	Alpha []float64
	// Gradient is ∇f(α) = Qα + p.
	Gradient  []float64
	Rho       float64
	Objective float64
	// Iterations counts two-variable updates.
	Iterations int
	// Converged is false when the iteration cap, MaxTrainTime or the
	// context deadline stopped the solver first.
	Converged   bool
	UpperBoundP float64
	UpperBoundN float64
}

// DefaultMaxIter returns the iteration cap used for l variables.
func DefaultMaxIter(l int) int {
	if l > math.MaxInt32/100 {
		return math.MaxInt32
	}
	return max(10_000_000, 100*l)
}

func (p *Problem) validate() error {
	const op = "svm.Solve"
	if p.Q == nil {
		return errors.NewConfigError(op, errors.ErrNilKernel.Error())
	}
	l := len(p.Y)
	if l == 0 {
		return errors.NewModelError(op, "empty problem", errors.ErrEmptyData)
	}
	if len(p.P) != l {
		return errors.NewConfigErrorf(op, "linear term has %d entries for %d variables", len(p.P), l)
	}
	if p.Alpha != nil && len(p.Alpha) != l {
		return errors.NewConfigErrorf(op, "initial alpha has %d entries for %d variables", len(p.Alpha), l)
	}
	if len(p.Q.Diagonal()) != l {
		return errors.NewConfigErrorf(op, "Q has %d rows for %d variables", len(p.Q.Diagonal()), l)
	}
	if !(p.Cp > 0) || !(p.Cn > 0) {
		return errors.NewConfigErrorf(op, "upper bounds must be positive, got Cp=%g Cn=%g", p.Cp, p.Cn)
	}
	for i, y := range p.Y {
		if y != 1 && y != -1 {
			return errors.NewConfigErrorf(op, "label %d is %g, want ±1", i, y)
		}
		if p.Alpha != nil {
			c := p.Cp
			if y < 0 {
				c = p.Cn
			}
			if p.Alpha[i] < 0 || p.Alpha[i] > c {
				return errors.NewConfigErrorf(op, "initial alpha[%d]=%g outside [0, %g]", i, p.Alpha[i], c)
			}
		}
	}
	return nil
}

// solver holds the working state. Positions are permuted by shrinking;
// activeSet maps a position back to its variable.
type solver struct {
	l, activeSize int
	q             QMatrix
	qd            []float64
	y             []float64
	p             []float64
	alpha         []float64
	g             []float64
	// gBar is the gradient contribution of upper-bounded variables.
	gBar      []float64
	status    []alphaStatus
	activeSet []int
	cp, cn    float64
	eps       float64
	logger    log.Logger
}

// Solve runs the working-set decomposition on prob.
//
// Each iteration picks the pair with the largest second-order gain among
// KKT violators (Fan, Chen and Lin 2005) and solves the two-variable
// subproblem in closed form. When K_ii + K_jj - 2K_ij is not positive, as
// for zero vectors under a non-degenerate kernel, the curvature is replaced
// by tau and the step lands on the box boundary.
//
// With shrinking, variables that cannot enter a violating pair are removed
// from the active set every min(l, 1000) iterations. They come back only
// when the active set is optimal: the full gradient is rebuilt from gBar
// and the free variables, and solving resumes if violations remain.
//
// Cancelling ctx aborts with an error. A ctx deadline, MaxTrainTime or the
// iteration cap end the run early with Converged = false and a
// ConvergenceWarning.
func Solve(ctx context.Context, prob Problem, cfg SolverConfig) (*Solution, error) {
	if err := prob.validate(); err != nil {
		return nil, err
	}
	if !(cfg.Eps > 0) {
		return nil, errors.NewConfigErrorf("svm.Solve", "tolerance must be positive, got %g", cfg.Eps)
	}
	s := newSolver(prob, cfg)
	return s.run(ctx, cfg)
}

func newSolver(prob Problem, cfg SolverConfig) *solver {
	l := len(prob.Y)
	logger := cfg.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("svm.solver")
	}
	s := &solver{
		l:          l,
		activeSize: l,
		q:          prob.Q,
		qd:         prob.Q.Diagonal(),
		y:          append([]float64(nil), prob.Y...),
		p:          append([]float64(nil), prob.P...),
		alpha:      make([]float64, l),
		g:          make([]float64, l),
		gBar:       make([]float64, l),
		status:     make([]alphaStatus, l),
		activeSet:  make([]int, l),
		cp:         prob.Cp,
		cn:         prob.Cn,
		eps:        cfg.Eps,
		logger:     logger,
	}
	if prob.Alpha != nil {
		copy(s.alpha, prob.Alpha)
	}
	for i := 0; i < l; i++ {
		s.updateStatus(i)
		s.activeSet[i] = i
		s.g[i] = s.p[i]
	}
	for i := 0; i < l; i++ {
		if s.status[i] == lowerBound {
			continue
		}
		qi := s.q.Column(i, l)
		ai := s.alpha[i]
		for j := 0; j < l; j++ {
			s.g[j] += ai * qi[j]
		}
		if s.status[i] == upperBound {
			ci := s.boundOf(i)
			for j := 0; j < l; j++ {
				s.gBar[j] += ci * qi[j]
			}
		}
	}
	return s
}

func (s *solver) boundOf(i int) float64 {
	if s.y[i] > 0 {
		return s.cp
	}
	return s.cn
}

func (s *solver) updateStatus(i int) {
	switch {
	case s.alpha[i] >= s.boundOf(i):
		s.status[i] = upperBound
	case s.alpha[i] <= 0:
		s.status[i] = lowerBound
	default:
		s.status[i] = freeVar
	}
}

func (s *solver) run(ctx context.Context, cfg SolverConfig) (*Solution, error) {
	start := time.Now()
	maxIter := cfg.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIter(s.l)
	}
	s.logger.Debug("solver started",
		log.SamplesKey, s.l,
		log.OperationKey, log.OperationFit,
	)

	counter := min(s.l, shrinkInterval) + 1
	iter := 0
	converged := false
	var violation float64
	for iter < maxIter {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return nil, errors.Wrap(err, "svm solver cancelled")
		}
		if cfg.MaxTrainTime > 0 && time.Since(start) > cfg.MaxTrainTime {
			break
		}

		if counter--; counter == 0 {
			counter = min(s.l, shrinkInterval)
			if cfg.Shrinking {
				s.shrink()
			}
		}

		i, j, v, optimal := s.selectWorkingSet()
		violation = v
		if optimal && s.activeSize == s.l {
			converged = true
			break
		}
		if optimal {
			// optimal on the active set: reactivate everything and re-check
			s.reconstructGradient()
			s.activeSize = s.l
			i, j, v, optimal = s.selectWorkingSet()
			violation = v
			if optimal {
				converged = true
				break
			}
			counter = 1
		}

		iter++
		s.update(i, j)
	}

	if !converged {
		if s.activeSize < s.l {
			s.reconstructGradient()
			s.activeSize = s.l
		}
		w := errors.NewConvergenceWarning("svm.Solve", iter,
			"stopped before the KKT tolerance was met; the model is usable but not optimal")
		errors.Warn(w)
		s.logger.Warn("solver did not converge",
			log.IterationKey, iter,
			log.KKTViolationKey, violation,
			log.ErrorCodeKey, log.ErrorConvergence,
		)
	}

	sol := &Solution{
		Alpha:       make([]float64, s.l),
		Gradient:    make([]float64, s.l),
		Rho:         s.calculateRho(),
		Iterations:  iter,
		Converged:   converged,
		UpperBoundP: s.cp,
		UpperBoundN: s.cn,
	}
	var obj float64
	for i := 0; i < s.l; i++ {
		obj += s.alpha[i] * (s.g[i] + s.p[i])
		sol.Alpha[s.activeSet[i]] = s.alpha[i]
		sol.Gradient[s.activeSet[i]] = s.g[i]
	}
	sol.Objective = obj / 2
	if err := errors.CheckNumericalStability("svm.Solve", sol.Gradient, iter); err != nil {
		return nil, err
	}
	if err := errors.CheckScalar("svm.Solve", sol.Objective, iter); err != nil {
		return nil, err
	}

	s.logger.Debug("solver finished",
		log.IterationKey, iter,
		log.ObjectiveKey, sol.Objective,
		log.ConvergedKey, converged,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return sol, nil
}

// selectWorkingSet returns the pair (i, j) to optimize, the maximal
// violation m(α) - M(α) on the active set, and whether that violation is
// below eps.
func (s *solver) selectWorkingSet() (int, int, float64, bool) {
	gmax := math.Inf(-1)
	gmax2 := math.Inf(-1)
	gmaxIdx, gminIdx := -1, -1
	objDiffMin := math.Inf(1)

	for t := 0; t < s.activeSize; t++ {
		if s.y[t] > 0 {
			if s.status[t] != upperBound && -s.g[t] >= gmax {
				gmax = -s.g[t]
				gmaxIdx = t
			}
		} else if s.status[t] != lowerBound && s.g[t] >= gmax {
			gmax = s.g[t]
			gmaxIdx = t
		}
	}

	i := gmaxIdx
	if i == -1 {
		return -1, -1, gmax, true
	}
	qi := s.q.Column(i, s.activeSize)

	for j := 0; j < s.activeSize; j++ {
		var gradDiff, quad float64
		if s.y[j] > 0 {
			if s.status[j] == lowerBound {
				continue
			}
			gradDiff = gmax + s.g[j]
			if s.g[j] >= gmax2 {
				gmax2 = s.g[j]
			}
			if gradDiff <= 0 {
				continue
			}
			quad = s.qd[i] + s.qd[j] - 2*s.y[i]*qi[j]
		} else {
			if s.status[j] == upperBound {
				continue
			}
			gradDiff = gmax - s.g[j]
			if -s.g[j] >= gmax2 {
				gmax2 = -s.g[j]
			}
			if gradDiff <= 0 {
				continue
			}
			quad = s.qd[i] + s.qd[j] + 2*s.y[i]*qi[j]
		}
		if quad <= 0 {
			quad = tau
		}
		if objDiff := -(gradDiff * gradDiff) / quad; objDiff <= objDiffMin {
			gminIdx = j
			objDiffMin = objDiff
		}
	}

	violation := gmax + gmax2
	if violation < s.eps || gminIdx == -1 {
		return -1, -1, violation, true
	}
	return gmaxIdx, gminIdx, violation, false
}

// update solves the two-variable subproblem on (i, j) and refreshes the
// gradient.
func (s *solver) update(i, j int) {
	qi := s.q.Column(i, s.activeSize)
	qj := s.q.Column(j, s.activeSize)
	ci, cj := s.boundOf(i), s.boundOf(j)
	oldAi, oldAj := s.alpha[i], s.alpha[j]

	if s.y[i] != s.y[j] {
		quad := s.qd[i] + s.qd[j] + 2*qi[j]
		if quad <= 0 {
			quad = tau
		}
		delta := (-s.g[i] - s.g[j]) / quad
		diff := s.alpha[i] - s.alpha[j]
		s.alpha[i] += delta
		s.alpha[j] += delta

		if diff > 0 {
			if s.alpha[j] < 0 {
				s.alpha[j] = 0
				s.alpha[i] = diff
			}
		} else if s.alpha[i] < 0 {
			s.alpha[i] = 0
			s.alpha[j] = -diff
		}
		if diff > ci-cj {
			if s.alpha[i] > ci {
				s.alpha[i] = ci
				s.alpha[j] = ci - diff
			}
		} else if s.alpha[j] > cj {
			s.alpha[j] = cj
			s.alpha[i] = cj + diff
		}
	} else {
		quad := s.qd[i] + s.qd[j] - 2*qi[j]
		if quad <= 0 {
			quad = tau
		}
		delta := (s.g[i] - s.g[j]) / quad
		sum := s.alpha[i] + s.alpha[j]
		s.alpha[i] -= delta
		s.alpha[j] += delta

		if sum > ci {
			if s.alpha[i] > ci {
				s.alpha[i] = ci
				s.alpha[j] = sum - ci
			}
		} else if s.alpha[j] < 0 {
			s.alpha[j] = 0
			s.alpha[i] = sum
		}
		if sum > cj {
			if s.alpha[j] > cj {
				s.alpha[j] = cj
				s.alpha[i] = sum - cj
			}
		} else if s.alpha[i] < 0 {
			s.alpha[i] = 0
			s.alpha[j] = sum
		}
	}

	dAi := s.alpha[i] - oldAi
	dAj := s.alpha[j] - oldAj
	for k := 0; k < s.activeSize; k++ {
		s.g[k] += qi[k]*dAi + qj[k]*dAj
	}

	wasUpperI := s.status[i] == upperBound
	wasUpperJ := s.status[j] == upperBound
	s.updateStatus(i)
	s.updateStatus(j)
	s.adjustGBar(i, ci, wasUpperI)
	s.adjustGBar(j, cj, wasUpperJ)
}

// adjustGBar keeps gBar in sync when variable i enters or leaves its upper bound.
func (s *solver) adjustGBar(i int, c float64, wasUpper bool) {
	isUpper := s.status[i] == upperBound
	if wasUpper == isUpper {
		return
	}
	qi := s.q.Column(i, s.l)
	if wasUpper {
		c = -c
	}
	for k := 0; k < s.l; k++ {
		s.gBar[k] += c * qi[k]
	}
}

// reconstructGradient rebuilds g for inactive positions from gBar and the
// free variables.
func (s *solver) reconstructGradient() {
	if s.activeSize == s.l {
		return
	}
	for j := s.activeSize; j < s.l; j++ {
		s.g[j] = s.gBar[j] + s.p[j]
	}
	nFree := 0
	for j := 0; j < s.activeSize; j++ {
		if s.status[j] == freeVar {
			nFree++
		}
	}
	if 2*nFree < s.activeSize {
		s.logger.Debug("few free variables at gradient reconstruction; shrinking may not pay off",
			log.ActiveSizeKey, s.activeSize)
	}

	if nFree*s.l > 2*s.activeSize*(s.l-s.activeSize) {
		for i := s.activeSize; i < s.l; i++ {
			qi := s.q.Column(i, s.activeSize)
			for j := 0; j < s.activeSize; j++ {
				if s.status[j] == freeVar {
					s.g[i] += s.alpha[j] * qi[j]
				}
			}
		}
		return
	}
	for i := 0; i < s.activeSize; i++ {
		if s.status[i] != freeVar {
			continue
		}
		qi := s.q.Column(i, s.l)
		ai := s.alpha[i]
		for j := s.activeSize; j < s.l; j++ {
			s.g[j] += ai * qi[j]
		}
	}
}

func (s *solver) shrinkable(i int, gmax1, gmax2 float64) bool {
	switch s.status[i] {
	case upperBound:
		if s.y[i] > 0 {
			return -s.g[i] > gmax1
		}
		return -s.g[i] > gmax2
	case lowerBound:
		if s.y[i] > 0 {
			return s.g[i] > gmax2
		}
		return s.g[i] > gmax1
	default:
		return false
	}
}

// shrink moves variables that cannot take part in a violating pair behind
// activeSize.
func (s *solver) shrink() {
	gmax1 := math.Inf(-1) // max { -y_i ∇f_i | i ∈ I_up }
	gmax2 := math.Inf(-1) // max { y_i ∇f_i | i ∈ I_low }
	for i := 0; i < s.activeSize; i++ {
		if s.y[i] > 0 {
			if s.status[i] != upperBound && -s.g[i] >= gmax1 {
				gmax1 = -s.g[i]
			}
			if s.status[i] != lowerBound && s.g[i] >= gmax2 {
				gmax2 = s.g[i]
			}
		} else {
			if s.status[i] != upperBound && -s.g[i] >= gmax2 {
				gmax2 = -s.g[i]
			}
			if s.status[i] != lowerBound && s.g[i] >= gmax1 {
				gmax1 = s.g[i]
			}
		}
	}

	for i := 0; i < s.activeSize; i++ {
		if !s.shrinkable(i, gmax1, gmax2) {
			continue
		}
		s.activeSize--
		for s.activeSize > i {
			if !s.shrinkable(s.activeSize, gmax1, gmax2) {
				s.swapIndex(i, s.activeSize)
				break
			}
			s.activeSize--
		}
	}
}

func (s *solver) swapIndex(i, j int) {
	s.q.SwapIndex(i, j)
	s.y[i], s.y[j] = s.y[j], s.y[i]
	s.g[i], s.g[j] = s.g[j], s.g[i]
	s.status[i], s.status[j] = s.status[j], s.status[i]
	s.alpha[i], s.alpha[j] = s.alpha[j], s.alpha[i]
	s.p[i], s.p[j] = s.p[j], s.p[i]
	s.activeSet[i], s.activeSet[j] = s.activeSet[j], s.activeSet[i]
	s.gBar[i], s.gBar[j] = s.gBar[j], s.gBar[i]
}

// calculateRho averages y_i∇f_i over free variables, or takes the midpoint
// of the feasible interval when none is free.
func (s *solver) calculateRho() float64 {
	nFree := 0
	ub, lb := math.Inf(1), math.Inf(-1)
	var sumFree float64
	for i := 0; i < s.activeSize; i++ {
		yG := s.y[i] * s.g[i]
		switch {
		case s.status[i] == upperBound:
			if s.y[i] < 0 {
				ub = math.Min(ub, yG)
			} else {
				lb = math.Max(lb, yG)
			}
		case s.status[i] == lowerBound:
			if s.y[i] > 0 {
				ub = math.Min(ub, yG)
			} else {
				lb = math.Max(lb, yG)
			}
		default:
			nFree++
			sumFree += yG
		}
	}
	if nFree > 0 {
		return sumFree / float64(nFree)
	}
	return (ub + lb) / 2
}
