package model_selection

import (
	"context"
	"time"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/core/model"
	"github.com/YuminosukeSato/kernelmachine/core/parallel"
	"github.com/YuminosukeSato/kernelmachine/metrics"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"github.com/YuminosukeSato/kernelmachine/pkg/log"
	"gonum.org/v1/gonum/stat"
)

// CVResult stores cross-validation results
type CVResult struct {
	TrainScores []float64
	TestScores  []float64
	FitTimes    []float64
	ScoreTimes  []float64
	Estimators  []model.Estimator
}

// GetMeanScore returns mean test score
func (cv *CVResult) GetMeanScore() float64 {
	if len(cv.TestScores) == 0 {
		return 0.0
	}
	return stat.Mean(cv.TestScores, nil)
}

// GetStdScore returns the sample standard deviation of the test scores
func (cv *CVResult) GetStdScore() float64 {
	if len(cv.TestScores) <= 1 {
		return 0.0
	}
	return stat.StdDev(cv.TestScores, nil)
}

// CVOption configures CrossValScore.
type CVOption func(*cvConfig)

type cvConfig struct {
	maxConcurrency int
	scoring        string
	logger         log.Logger
}

// WithMaxConcurrency bounds the number of folds evaluated at once.
func WithMaxConcurrency(n int) CVOption {
	return func(c *cvConfig) { c.maxConcurrency = n }
}

// WithScoring scores each fold with the named metric from
// metrics.ScorerNames instead of the estimator's own Score.
func WithScoring(name string) CVOption {
	return func(c *cvConfig) { c.scoring = name }
}

// WithLogger sets the logger for per-fold records.
func WithLogger(logger log.Logger) CVOption {
	return func(c *cvConfig) { c.logger = logger }
}

// CrossValScore fits a fresh estimator per fold on a view of the training
// indices and scores it on both sides of the split. Folds run concurrently;
// each estimator builds its own kernel session, so nothing is shared but
// the read-only X and y. Times are in seconds.
func CrossValScore(ctx context.Context, newEstimator func() model.Estimator,
	X features.Set, y features.Labels, splitter KFoldSplitter, opts ...CVOption) (*CVResult, error) {
	const op = "CrossValScore"
	cfg := cvConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = log.GetLoggerWithName("model_selection")
	}
	if newEstimator == nil || splitter == nil {
		return nil, errors.NewConfigError(op, "estimator factory and splitter are required")
	}
	if err := features.CheckAligned(op, X, y); err != nil {
		return nil, err
	}
	score := func(est model.Estimator, X features.Set, y features.Labels) (float64, error) {
		return est.Score(X, y)
	}
	if cfg.scoring != "" {
		if _, err := metrics.GetScorer(cfg.scoring); err != nil {
			return nil, err
		}
		score = func(est model.Estimator, X features.Set, y features.Labels) (float64, error) {
			pred, err := est.Predict(X)
			if err != nil {
				return 0, err
			}
			return metrics.ScoreSlices(cfg.scoring, y.Values(), pred)
		}
	}

	folds := splitter.Split(X, y)
	nFolds := len(folds)
	result := &CVResult{
		TrainScores: make([]float64, nFolds),
		TestScores:  make([]float64, nFolds),
		FitTimes:    make([]float64, nFolds),
		ScoreTimes:  make([]float64, nFolds),
		Estimators:  make([]model.Estimator, nFolds),
	}

	err := parallel.ForEach(ctx, nFolds, cfg.maxConcurrency, func(ctx context.Context, i int) error {
		fold := folds[i]
		if len(fold.TrainIndices) == 0 || len(fold.TestIndices) == 0 {
			return errors.NewConfigErrorf(op, "fold %d has an empty side", i)
		}
		train, err := features.Subset(X, fold.TrainIndices)
		if err != nil {
			return err
		}
		test, err := features.Subset(X, fold.TestIndices)
		if err != nil {
			return err
		}
		yTrain := y.Subset(fold.TrainIndices)
		yTest := y.Subset(fold.TestIndices)

		est := newEstimator()
		start := time.Now()
		if err := est.Fit(ctx, train, yTrain); err != nil {
			return errors.Wrapf(err, "fold %d", i)
		}
		result.FitTimes[i] = time.Since(start).Seconds()

		start = time.Now()
		if result.TestScores[i], err = score(est, test, yTest); err != nil {
			return errors.Wrapf(err, "fold %d", i)
		}
		result.ScoreTimes[i] = time.Since(start).Seconds()
		if result.TrainScores[i], err = score(est, train, yTrain); err != nil {
			return errors.Wrapf(err, "fold %d", i)
		}
		result.Estimators[i] = est

		logger.Debug("fold evaluated",
			log.FoldKey, i,
			log.PhaseKey, log.PhaseValidation,
			log.AccuracyKey, result.TestScores[i],
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cross-validation completed",
		log.OperationKey, log.OperationScore,
		"cv.folds", nFolds,
		"cv.mean_score", result.GetMeanScore(),
		"cv.std_score", result.GetStdScore(),
	)
	return result, nil
}
