package svm

import (
	"time"

	"github.com/YuminosukeSato/kernelmachine/kernel"
	"github.com/YuminosukeSato/kernelmachine/metrics"
	"github.com/YuminosukeSato/kernelmachine/pkg/log"
)

// config holds the hyperparameters shared by SVC, OneClassSVM and SVR.
// Options that do not apply to an estimator are ignored by it.
type config struct {
	c            float64
	classWeights map[float64]float64
	kernelFn     kernel.Function
	eps          float64
	shrinking    bool
	cacheSizeMB  float64
	maxIter      int
	maxTrainTime time.Duration
	linearTerm   []float64
	precompute   bool
	svEpsilon    float64
	nu           float64
	epsilonSVR   float64
	scoring      string
	logger       log.Logger
}

func defaultConfig() config {
	return config{
		c:           1.0,
		kernelFn:    kernel.Gaussian{},
		eps:         1e-3,
		shrinking:   true,
		cacheSizeMB: 100,
		svEpsilon:   DefaultSVEpsilon,
		nu:          0.5,
		epsilonSVR:  0.1,
		scoring:     metrics.ScoringR2,
	}
}

// Option configures an SVM estimator.
type Option func(*config)

// WithC sets the box constraint C.
func WithC(c float64) Option {
	return func(cfg *config) { cfg.c = c }
}

// WithClassWeights multiplies C per class label (SVC only). Labels not in
// the map keep weight 1.
func WithClassWeights(weights map[float64]float64) Option {
	return func(cfg *config) {
		cfg.classWeights = make(map[float64]float64, len(weights))
		for k, v := range weights {
			cfg.classWeights[k] = v
		}
	}
}

// WithKernel sets the similarity function. Polynomial, Gaussian and Sigmoid
// kernels with Gamma == 0 get Gamma = 1/dim at fit time.
func WithKernel(fn kernel.Function) Option {
	return func(cfg *config) { cfg.kernelFn = fn }
}

// WithEpsilon sets the KKT violation tolerance.
func WithEpsilon(eps float64) Option {
	return func(cfg *config) { cfg.eps = eps }
}

// WithShrinking toggles the shrinking heuristic.
func WithShrinking(on bool) Option {
	return func(cfg *config) { cfg.shrinking = on }
}

// WithCacheSizeMB sets the kernel memory budget in MB. It bounds the
// solver's column cache and, with WithPrecompute, the packed kernel matrix;
// a matrix over budget is not built and kernels are evaluated on demand.
// Zero disables precomputation.
func WithCacheSizeMB(mb float64) Option {
	return func(cfg *config) { cfg.cacheSizeMB = mb }
}

// WithPrecompute builds the full symmetric kernel matrix before solving when
// it fits the WithCacheSizeMB budget.
func WithPrecompute(on bool) Option {
	return func(cfg *config) { cfg.precompute = on }
}

// WithMaxIter caps solver iterations. Zero restores the default cap.
func WithMaxIter(n int) Option {
	return func(cfg *config) { cfg.maxIter = n }
}

// WithMaxTrainTime sets a soft wall-clock budget for the solver.
func WithMaxTrainTime(d time.Duration) Option {
	return func(cfg *config) { cfg.maxTrainTime = d }
}

// WithLinearTerm adds an external linear term to the C-SVC objective, one
// entry per training vector (SVC only).
func WithLinearTerm(p []float64) Option {
	return func(cfg *config) { cfg.linearTerm = append([]float64(nil), p...) }
}

// WithSVEpsilon sets the support-vector extraction threshold.
func WithSVEpsilon(eps float64) Option {
	return func(cfg *config) { cfg.svEpsilon = eps }
}

// WithNu sets ν in (0, 1] (OneClassSVM only).
func WithNu(nu float64) Option {
	return func(cfg *config) { cfg.nu = nu }
}

// WithEpsilonInsensitive sets the width of the SVR tube (SVR only).
func WithEpsilonInsensitive(eps float64) Option {
	return func(cfg *config) { cfg.epsilonSVR = eps }
}

// WithScoring selects the metric SVR.Score reports by name, one of
// metrics.ScorerNames (SVR only, default "r2").
func WithScoring(name string) Option {
	return func(cfg *config) { cfg.scoring = name }
}

// WithLogger sets the logger used during training.
func WithLogger(logger log.Logger) Option {
	return func(cfg *config) { cfg.logger = logger }
}

// resolveKernel fills in Gamma = 1/dim for kernels that leave it unset.
func resolveKernel(fn kernel.Function, dim int) kernel.Function {
	if dim <= 0 {
		return fn
	}
	g := 1 / float64(dim)
	switch k := fn.(type) {
	case kernel.Gaussian:
		if k.Gamma == 0 {
			k.Gamma = g
		}
		return k
	case kernel.Polynomial:
		if k.Gamma == 0 {
			k.Gamma = g
		}
		return k
	case kernel.Sigmoid:
		if k.Gamma == 0 {
			k.Gamma = g
		}
		return k
	default:
		return fn
	}
}
