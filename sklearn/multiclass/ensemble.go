package multiclass

import (
	"context"
	"maps"
	"time"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/core/model"
	"github.com/YuminosukeSato/kernelmachine/core/parallel"
	"github.com/YuminosukeSato/kernelmachine/kernel"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"github.com/YuminosukeSato/kernelmachine/pkg/log"
	"github.com/YuminosukeSato/kernelmachine/sklearn/svm"
	"github.com/samber/lo"
)

// task describes one binary submachine. For one-vs-rest neg is -1 and the
// machine separates class pos from the rest; for one-vs-one it separates
// neg (negative decision) from pos (positive decision), neg < pos.
type task struct {
	pos, neg int
}

func tasksFor(strategy Strategy, numClasses int) []task {
	if strategy == OneVsRest {
		return lo.Map(lo.Range(numClasses), func(k, _ int) task { return task{pos: k, neg: -1} })
	}
	var out []task
	for a := 0; a < numClasses; a++ {
		for b := a + 1; b < numClasses; b++ {
			out = append(out, task{pos: b, neg: a})
		}
	}
	return out
}

// Ensemble is a multiclass classifier built from binary SVCs. It owns the
// kernel session used for prediction; the submachine models hold only
// indices into its lhs.
type Ensemble struct {
	state          *model.StateManager
	strategy       Strategy
	factory        Factory
	maxConcurrency int
	logger         log.Logger

	numClasses int
	tasks      []task
	models     []*svm.Model
	compact    []int
	naiveSV    int
	session    *kernel.Session
}

// New creates an ensemble. A nil factory trains svm.NewSVC() defaults.
func New(strategy Strategy, factory Factory, opts ...Option) *Ensemble {
	if factory == nil {
		factory = func() *svm.SVC { return svm.NewSVC() }
	}
	e := &Ensemble{
		state:    model.NewStateManager(),
		strategy: strategy,
		factory:  factory,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Ensemble) getLogger() log.Logger {
	l := e.logger
	if l == nil {
		l = log.GetLoggerWithName("multiclass")
	}
	return l.With(log.ModelNameKey, e.strategy.String())
}

func (e *Ensemble) reset() {
	e.state.Reset()
	e.numClasses = 0
	e.tasks = nil
	e.models = nil
	e.compact = nil
	e.naiveSV = 0
	e.session = nil
}

type trained struct {
	model     *svm.Model
	fn        kernel.Function
	converged bool
}

// Fit trains every submachine, then compacts their support vectors into one
// shared set. Nothing is remapped until all submachines have finished; if
// any of them fails the ensemble stays unfitted.
func (e *Ensemble) Fit(ctx context.Context, X features.Set, y features.Labels) (err error) {
	op := e.strategy.String() + ".Fit"
	defer errors.Recover(&err, op)
	e.reset()

	if e.strategy != OneVsRest && e.strategy != OneVsOne {
		return errors.NewConfigErrorf(op, "unknown strategy %d", int(e.strategy))
	}
	if err := features.CheckAligned(op, X, y); err != nil {
		return err
	}
	numClasses, err := y.NumClasses()
	if err != nil {
		return err
	}
	if numClasses < 2 {
		return errors.NewConfigErrorf(op, "need at least 2 classes, got %d", numClasses)
	}

	logger := e.getLogger()
	start := time.Now()
	tasks := tasksFor(e.strategy, numClasses)
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, X.NumVectors(),
		log.FeaturesKey, X.Dim(),
		log.ClassesKey, numClasses,
	)

	results := make([]trained, len(tasks))
	err = parallel.ForEach(ctx, len(tasks), e.maxConcurrency, func(ctx context.Context, i int) error {
		r, err := e.trainOne(ctx, X, y, tasks[i])
		if err != nil {
			return errors.Wrapf(err, "submachine %d", i)
		}
		logger.Debug("submachine trained",
			log.EstimatorIDKey, i,
			log.SupportVectorsKey, r.model.NumSupportVectors(),
			log.ConvergedKey, r.converged,
		)
		results[i] = r
		return nil
	})
	if err != nil {
		logger.Error("Training failed", log.ErrAttrKey, err)
		return err
	}

	ref := results[0].fn
	for i, r := range results[1:] {
		if !sameKernel(ref, r.fn) {
			err := errors.NewConfigErrorf(op, "submachine %d uses kernel %s%v, submachine 0 uses %s%v",
				i+1, r.fn.Name(), r.fn.Params(), ref.Name(), ref.Params())
			logger.Error("Training failed", log.ErrAttrKey, err)
			return err
		}
	}

	models := lo.Map(results, func(r trained, _ int) *svm.Model { return r.model })
	c, err := Compact(X, models)
	if err != nil {
		logger.Error("support vector remap failed", log.OperationKey, log.OperationRemap, log.ErrAttrKey, err)
		return err
	}
	var sess *kernel.Session
	if c.Set != nil {
		sess = kernel.NewSession(ref)
		if err := sess.Init(c.Set, X); err != nil {
			return err
		}
	}

	e.numClasses = numClasses
	e.tasks = tasks
	e.models = c.Models
	e.compact = c.Indices
	e.naiveSV = c.NaiveSize()
	e.session = sess
	e.state.SetDimensions(X.Dim(), X.NumVectors())
	e.state.SetConverged(lo.EveryBy(results, func(r trained) bool { return r.converged }))
	e.state.SetFitted()

	logger.Info("Training completed",
		log.SupportVectorsKey, e.naiveSV,
		log.CompactedSizeKey, len(e.compact),
		log.ConvergedKey, e.state.IsConverged(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// sameKernel reports whether a and b evaluate the same similarity. The
// shared prediction session holds a single function, so every submachine
// must have been trained with it.
func sameKernel(a, b kernel.Function) bool {
	return a.Name() == b.Name() && maps.Equal(a.Params(), b.Params())
}

// trainOne fits a fresh SVC for t. The returned model's indices refer to X.
func (e *Ensemble) trainOne(ctx context.Context, X features.Set, y features.Labels, t task) (trained, error) {
	svc := e.factory()
	if svc == nil {
		return trained{}, errors.NewConfigError(e.strategy.String()+".Fit", "factory returned nil")
	}

	if t.neg < 0 {
		binary := lo.Map(y.Values(), func(v float64, _ int) float64 {
			if v == float64(t.pos) {
				return 1
			}
			return 0
		})
		if err := svc.Fit(ctx, X, features.NewLabels(binary)); err != nil {
			return trained{}, err
		}
		return trained{model: svc.Model(), fn: svc.Session().Function(), converged: svc.Converged()}, nil
	}

	idx := lo.Filter(lo.Range(y.Len()), func(i, _ int) bool {
		v := y.At(i)
		return v == float64(t.pos) || v == float64(t.neg)
	})
	view, err := features.Subset(X, idx)
	if err != nil {
		return trained{}, err
	}
	if err := svc.Fit(ctx, view, y.Subset(idx)); err != nil {
		return trained{}, err
	}
	// positions in the view are positions in idx
	mdl, err := svc.Model().TranslateIndices(idx)
	if err != nil {
		return trained{}, err
	}
	return trained{model: mdl, fn: svc.Session().Function(), converged: svc.Converged()}, nil
}

// Strategy returns the decomposition strategy.
func (e *Ensemble) Strategy() Strategy { return e.strategy }

// IsFitted reports whether Fit or ImportWeights has succeeded.
func (e *Ensemble) IsFitted() bool { return e.state.IsFitted() }

// Converged reports whether every submachine met its tolerance.
func (e *Ensemble) Converged() bool { return e.state.IsConverged() }

// NumSubmachines returns C for one-vs-rest and C(C-1)/2 for one-vs-one.
func (e *Ensemble) NumSubmachines() int { return len(e.models) }

// Models returns the submachine models, indexed into the compacted set.
func (e *Ensemble) Models() []*svm.Model { return append([]*svm.Model(nil), e.models...) }

// CompactedIndices returns the training-set index of each compacted slot.
// It is nil after ImportWeights.
func (e *Ensemble) CompactedIndices() []int { return append([]int(nil), e.compact...) }

// CompactedSize returns the number of distinct support vectors kept.
func (e *Ensemble) CompactedSize() int {
	if e.session == nil {
		return 0
	}
	return e.session.LHS().NumVectors()
}

// NaiveSVCount returns the sum of the submachines' support-vector counts.
func (e *Ensemble) NaiveSVCount() int { return e.naiveSV }

// Session returns the shared prediction session, nil when no submachine
// has support vectors.
func (e *Ensemble) Session() *kernel.Session { return e.session }

// GetParams returns the ensemble's own parameters.
func (e *Ensemble) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"strategy":        e.strategy.String(),
		"max_concurrency": e.maxConcurrency,
	}
}

// SetParams sets "strategy" (by name) and "max_concurrency".
func (e *Ensemble) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "strategy":
			name, ok := value.(string)
			s, known := ParseStrategy(name)
			if !ok || !known {
				return errors.NewValidationError(key, "expected OneVsRest or OneVsOne", value)
			}
			e.strategy = s
		case "max_concurrency":
			n, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "unexpected type", value)
			}
			e.maxConcurrency = n
		default:
			return errors.NewValueError("Ensemble.SetParams", "unknown parameter: "+key)
		}
	}
	return nil
}
