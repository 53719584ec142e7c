package metrics

import (
	"slices"
	"strconv"

	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
)

// ScoreFunc compares predictions with ground truth. Greater is better, so
// error metrics are registered negated.
type ScoreFunc func(yTrue, yPred *mat.VecDense) (float64, error)

// Scoring names accepted by GetScorer.
const (
	ScoringAccuracy          = "accuracy"
	ScoringR2                = "r2"
	ScoringExplainedVariance = "explained_variance"
	ScoringNegMSE            = "neg_mean_squared_error"
	ScoringNegRMSE           = "neg_root_mean_squared_error"
	ScoringNegMAE            = "neg_mean_absolute_error"
)

var scorers = map[string]ScoreFunc{
	ScoringAccuracy:          Accuracy,
	ScoringR2:                R2Score,
	ScoringExplainedVariance: ExplainedVarianceScore,
	ScoringNegMSE:            negate(MSE),
	ScoringNegRMSE:           negate(RMSE),
	ScoringNegMAE:            negate(MAE),
}

func negate(f ScoreFunc) ScoreFunc {
	return func(yTrue, yPred *mat.VecDense) (float64, error) {
		v, err := f(yTrue, yPred)
		return -v, err
	}
}

// GetScorer returns the ScoreFunc registered under name.
func GetScorer(name string) (ScoreFunc, error) {
	f, ok := scorers[name]
	if !ok {
		return nil, errors.NewConfigErrorf("metrics.GetScorer", "unknown scoring %s, want one of %v",
			strconv.Quote(name), ScorerNames())
	}
	return f, nil
}

// ScorerNames lists the registered scoring names in sorted order.
func ScorerNames() []string {
	names := lo.Keys(scorers)
	slices.Sort(names)
	return names
}

// ScoreSlices applies the named scorer to plain slices.
func ScoreSlices(name string, yTrue, yPred []float64) (float64, error) {
	f, err := GetScorer(name)
	if err != nil {
		return 0, err
	}
	if len(yTrue) == 0 || len(yPred) == 0 {
		return 0, errors.NewValueError(name, "empty vector")
	}
	if len(yTrue) != len(yPred) {
		return 0, errors.NewDimensionError(name, len(yTrue), len(yPred), 0)
	}
	return f(mat.NewVecDense(len(yTrue), yTrue), mat.NewVecDense(len(yPred), yPred))
}
