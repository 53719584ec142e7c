package svm

import (
	"context"
	"time"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/core/model"
	"github.com/YuminosukeSato/kernelmachine/kernel"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"github.com/YuminosukeSato/kernelmachine/pkg/log"
)

// machine is the state shared by the SVM estimators: hyperparameters, the
// kernel session whose lhs holds the training vectors, and the fitted model.
type machine struct {
	state *model.StateManager
	cfg   config
	name  string

	session  *kernel.Session
	model    *Model
	solution *Solution
}

func newMachine(name string, opts []Option) machine {
	m := machine{
		state: model.NewStateManager(),
		cfg:   defaultConfig(),
		name:  name,
	}
	for _, opt := range opts {
		opt(&m.cfg)
	}
	return m
}

func (m *machine) logger() log.Logger {
	if m.cfg.logger != nil {
		return m.cfg.logger.With(log.ModelNameKey, m.name)
	}
	return log.GetLoggerWithName("svm").With(log.ModelNameKey, m.name)
}

func (m *machine) validateConfig(op string) error {
	switch {
	case !(m.cfg.c > 0):
		return errors.NewConfigErrorf(op, "C must be positive, got %g", m.cfg.c)
	case !(m.cfg.eps > 0):
		return errors.NewConfigErrorf(op, "tolerance must be positive, got %g", m.cfg.eps)
	case m.cfg.cacheSizeMB < 0:
		return errors.NewConfigErrorf(op, "cache size must be non-negative, got %g", m.cfg.cacheSizeMB)
	case m.cfg.svEpsilon < 0:
		return errors.NewConfigErrorf(op, "support vector threshold must be non-negative, got %g", m.cfg.svEpsilon)
	case m.cfg.kernelFn == nil:
		return errors.NewConfigError(op, errors.ErrNilKernel.Error())
	}
	for label, w := range m.cfg.classWeights {
		if !(w > 0) {
			return errors.NewConfigErrorf(op, "weight for class %g must be positive, got %g", label, w)
		}
	}
	return nil
}

// bind opens a symmetric session over the training vectors.
func (m *machine) bind(X features.Set) (*kernel.Session, error) {
	fn := resolveKernel(m.cfg.kernelFn, X.Dim())
	sess := kernel.NewSession(fn,
		kernel.WithPrecompute(m.cfg.precompute && m.cfg.cacheSizeMB > 0),
		kernel.WithCacheBudgetMB(m.cfg.cacheSizeMB),
	)
	if err := sess.Init(X, X); err != nil {
		return nil, err
	}
	return sess, nil
}

func (m *machine) solverConfig(logger log.Logger) SolverConfig {
	return SolverConfig{
		Eps:          m.cfg.eps,
		Shrinking:    m.cfg.shrinking,
		MaxIter:      m.cfg.maxIter,
		MaxTrainTime: m.cfg.maxTrainTime,
		Logger:       logger,
	}
}

// train runs the solver on prob, logging around it. The packed kernel cache,
// if any, is released once solving ends.
func (m *machine) train(ctx context.Context, sess *kernel.Session, prob Problem) (*Solution, error) {
	logger := m.logger()
	start := time.Now()
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, sess.LHS().NumVectors(),
		log.FeaturesKey, sess.LHS().Dim(),
		log.KernelKey, sess.Function().Name(),
	)
	if m.cfg.precompute && m.cfg.cacheSizeMB > 0 {
		if err := sess.Precompute(ctx); err != nil {
			logger.Warn("kernel precomputation failed, evaluating on demand", log.ErrAttrKey, err)
		}
	}
	sol, err := Solve(ctx, prob, m.solverConfig(logger))
	sess.SetPrecompute(false)
	if err != nil {
		logger.Error("Training failed", log.ErrAttrKey, err)
		return nil, err
	}
	logger.Info("Training completed",
		log.IterationKey, sol.Iterations,
		log.ConvergedKey, sol.Converged,
		log.ObjectiveKey, sol.Objective,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return sol, nil
}

func (m *machine) commit(sess *kernel.Session, mdl *Model, sol *Solution) {
	m.session = sess
	m.model = mdl
	m.solution = sol
	m.state.SetDimensions(sess.LHS().Dim(), sess.LHS().NumVectors())
	m.state.SetConverged(sol == nil || sol.Converged)
	m.state.SetFitted()
	m.logger().Debug("model extracted", log.SupportVectorsKey, mdl.NumSupportVectors())
}

// decision evaluates the fitted model on every vector of X.
func (m *machine) decision(method string, X features.Set) ([]float64, error) {
	if err := m.state.RequireFitted(m.name, method); err != nil {
		return nil, err
	}
	if X == nil || X.NumVectors() == 0 {
		return nil, errors.NewModelError(m.name+"."+method, "empty data", errors.ErrEmptyData)
	}
	nFeatures, _ := m.state.GetDimensions()
	if X.Dim() != nFeatures {
		return nil, errors.NewDimensionError(m.name+"."+method, nFeatures, X.Dim(), 1)
	}
	if m.model.NumSupportVectors() == 0 {
		out := make([]float64, X.NumVectors())
		for i := range out {
			out[i] = m.model.bias
		}
		return out, nil
	}
	sess, err := m.session.Rebind(m.session.LHS(), X)
	if err != nil {
		return nil, err
	}
	return m.model.DecisionValues(sess)
}

// Model returns the fitted support-vector model, nil before Fit.
func (m *machine) Model() *Model { return m.model }

// Solution returns the raw solver output of the last Fit, nil before Fit or
// after ImportWeights.
func (m *machine) Solution() *Solution { return m.solution }

// Session returns the training session; its lhs holds the vectors the
// model's support-vector indices refer to.
func (m *machine) Session() *kernel.Session { return m.session }

// IsFitted reports whether Fit or ImportWeights has succeeded.
func (m *machine) IsFitted() bool { return m.state.IsFitted() }

// Converged reports whether the last Fit met its tolerance.
func (m *machine) Converged() bool { return m.state.IsConverged() }

// GetParams returns the hyperparameters.
func (m *machine) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":              m.cfg.c,
		"kernel":         m.cfg.kernelFn,
		"tol":            m.cfg.eps,
		"shrinking":      m.cfg.shrinking,
		"cache_size":     m.cfg.cacheSizeMB,
		"precompute":     m.cfg.precompute,
		"max_iter":       m.cfg.maxIter,
		"max_train_time": m.cfg.maxTrainTime,
		"sv_epsilon":     m.cfg.svEpsilon,
		"nu":             m.cfg.nu,
		"epsilon":        m.cfg.epsilonSVR,
		"scoring":        m.cfg.scoring,
	}
}

// SetParams sets hyperparameters by name. It takes effect on the next Fit.
func (m *machine) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "C":
			ok = setParam(&m.cfg.c, value)
		case "kernel":
			ok = setParam(&m.cfg.kernelFn, value)
		case "tol":
			ok = setParam(&m.cfg.eps, value)
		case "shrinking":
			ok = setParam(&m.cfg.shrinking, value)
		case "cache_size":
			ok = setParam(&m.cfg.cacheSizeMB, value)
		case "precompute":
			ok = setParam(&m.cfg.precompute, value)
		case "max_iter":
			ok = setParam(&m.cfg.maxIter, value)
		case "max_train_time":
			ok = setParam(&m.cfg.maxTrainTime, value)
		case "sv_epsilon":
			ok = setParam(&m.cfg.svEpsilon, value)
		case "nu":
			ok = setParam(&m.cfg.nu, value)
		case "epsilon":
			ok = setParam(&m.cfg.epsilonSVR, value)
		case "scoring":
			ok = setParam(&m.cfg.scoring, value)
		default:
			return errors.NewValueError(m.name+".SetParams", "unknown parameter: "+key)
		}
		if !ok {
			return errors.NewValidationError(key, "unexpected type", value)
		}
	}
	return nil
}

func setParam[T any](dst *T, value interface{}) bool {
	v, ok := value.(T)
	if ok {
		*dst = v
	}
	return ok
}
