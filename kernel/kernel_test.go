package kernel

import (
	"bytes"
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func randomSet(t *testing.T, n, dim int, seed uint64) *features.DenseSet {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	data := make([]float64, n*dim)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return features.NewDenseSet(mat.NewDense(n, dim, data))
}

func allFunctions() []Function {
	return []Function{
		Linear{},
		Polynomial{Degree: 3, Gamma: 0.5, Coef0: 1},
		Gaussian{Gamma: 0.7},
		Sigmoid{Gamma: 0.1, Coef0: -0.2},
		Tanimoto{},
		Euclidean{},
		Manhattan{},
		Chebyshev{},
	}
}

func TestFunctionValues(t *testing.T) {
	a := features.DenseVector{1, 2}
	b := features.DenseVector{3, -1}

	assert.InDelta(t, 1.0, Linear{}.Compute(a, b), 1e-12)
	assert.InDelta(t, math.Pow(0.5*1+1, 3), Polynomial{Degree: 3, Gamma: 0.5, Coef0: 1}.Compute(a, b), 1e-12)
	assert.InDelta(t, math.Exp(-0.7*13), Gaussian{Gamma: 0.7}.Compute(a, b), 1e-12)
	assert.InDelta(t, math.Tanh(0.1-0.2), Sigmoid{Gamma: 0.1, Coef0: -0.2}.Compute(a, b), 1e-12)
	assert.InDelta(t, 1.0/(5+10-1), Tanimoto{}.Compute(a, b), 1e-12)
	assert.InDelta(t, math.Sqrt(13), Euclidean{}.Compute(a, b), 1e-12)
	assert.InDelta(t, 5.0, Manhattan{}.Compute(a, b), 1e-12)
	assert.InDelta(t, 3.0, Chebyshev{}.Compute(a, b), 1e-12)
}

func TestTanimotoZeroNormWarnsOncePerBind(t *testing.T) {
	var got []error
	errors.SetWarningHandler(func(w error) { got = append(got, w) })
	defer errors.SetWarningHandler(nil)

	zero := features.DenseVector{0, 0}
	assert.Equal(t, 0.0, Tanimoto{}.Compute(zero, zero))
	assert.Empty(t, got, "Compute stays silent")

	// 3つのゼロベクトルを含む6点
	X := features.NewDenseSet(mat.NewDense(6, 2, []float64{
		0, 0,
		1, 2,
		0, 0,
		3, -1,
		0, 0,
		2, 2,
	}))
	sess := NewSession(Tanimoto{}, WithPrecompute(true))
	require.NoError(t, sess.Init(X, X))
	require.Len(t, got, 1)
	var nw *errors.NumericalWarning
	assert.True(t, errors.As(got[0], &nw))

	require.NoError(t, sess.Precompute(context.Background()))
	K, err := sess.Matrix()
	require.NoError(t, err)
	assert.Equal(t, 0.0, K.At(0, 2))
	assert.Equal(t, 0.0, K.At(4, 4))
	assert.InDelta(t, 1.0, K.At(1, 1), 1e-12)
	assert.Len(t, got, 1, "no warning per zero pair")

	// 片側にしかゼロベクトルがなければ分母は消えない
	got = nil
	rhs := features.NewDenseSet(mat.NewDense(2, 2, []float64{1, 0, 0, 1}))
	require.NoError(t, NewSession(Tanimoto{}).Init(X, rhs))
	assert.Empty(t, got)
}

func TestFromSpecRoundTrip(t *testing.T) {
	for _, fn := range allFunctions() {
		t.Run(fn.Name(), func(t *testing.T) {
			back, err := FromSpec(fn.Name(), fn.Params())
			require.NoError(t, err)
			assert.Equal(t, fn, back)
		})
	}
	_, err := FromSpec("precomputed", nil)
	assert.Error(t, err)
}

func TestInitRejectsIncompatibleFeatures(t *testing.T) {
	a := randomSet(t, 4, 3, 1)
	b := randomSet(t, 4, 2, 2)

	var cfg *errors.ConfigError
	assert.True(t, errors.As(NewSession(Linear{}).Init(a, b), &cfg))
	assert.True(t, errors.As(NewSession(nil).Init(a, a), &cfg))
	assert.True(t, errors.As(NewSession(Gaussian{}).Init(a, a), &cfg))
	assert.True(t, errors.As(NewSession(Polynomial{Degree: 0}).Init(a, a), &cfg))
}

func TestGetIsSymmetric(t *testing.T) {
	X := randomSet(t, 15, 3, 7)
	for _, fn := range allFunctions() {
		t.Run(fn.Name(), func(t *testing.T) {
			s := NewSession(fn)
			require.NoError(t, s.Init(X, X))
			for i := 0; i < 15; i++ {
				for j := 0; j < 15; j++ {
					assert.Equal(t, s.Get(i, j), s.Get(j, i))
				}
			}
		})
	}
}

func TestCacheMatchesDirectComputation(t *testing.T) {
	X := randomSet(t, 40, 4, 11)
	for _, fn := range allFunctions() {
		t.Run(fn.Name(), func(t *testing.T) {
			cached := NewSession(fn, WithPrecompute(true))
			require.NoError(t, cached.Init(X, X))
			for i := 0; i < 40; i++ {
				for j := 0; j < 40; j++ {
					assert.InDelta(t, cached.Compute(i, j), cached.Get(i, j), 1e-12)
				}
			}
			assert.Equal(t, 40*41/2, cached.CacheEntries())
		})
	}
}

func TestGetIndexConventions(t *testing.T) {
	X := randomSet(t, 5, 2, 3)
	s := NewSession(Gaussian{Gamma: 1})
	require.NoError(t, s.Init(X, X))

	assert.Equal(t, 0.0, s.Get(-1, 2))
	assert.Equal(t, 0.0, s.Get(2, -3))
	// index 5 mirrors to 4, index 9 to 0
	assert.Equal(t, s.Get(4, 1), s.Get(5, 1))
	assert.Equal(t, s.Get(0, 3), s.Get(9, 3))
}

func TestSetPrecomputeFreesAndRebuildsLazily(t *testing.T) {
	X := randomSet(t, 10, 2, 5)
	s := NewSession(Linear{})
	require.NoError(t, s.Init(X, X))
	assert.Equal(t, 0, s.CacheEntries())

	s.SetPrecompute(true)
	assert.Equal(t, 0, s.CacheEntries(), "turning precompute on must not build eagerly")
	s.Get(1, 2)
	assert.Equal(t, 55, s.CacheEntries())

	s.SetPrecompute(false)
	assert.Equal(t, 0, s.CacheEntries())

	require.NoError(t, s.Precompute(context.Background()))
	assert.Equal(t, 55, s.CacheEntries())

	// Init invalidates the cache
	require.NoError(t, s.Init(X, X))
	assert.Equal(t, 0, s.CacheEntries())
}

func TestPrecomputeRequiresSymmetricSession(t *testing.T) {
	a := randomSet(t, 4, 2, 1)
	b := randomSet(t, 3, 2, 2)
	s := NewSession(Linear{}, WithPrecompute(true))
	assert.Error(t, s.Precompute(context.Background()))

	require.NoError(t, s.Init(a, b))
	assert.Error(t, s.Precompute(context.Background()))
	assert.Equal(t, a.Vector(1).Dot(b.Vector(2)), s.Get(1, 2))
}

func TestPrecomputeCancelledCanRetry(t *testing.T) {
	X := randomSet(t, 30, 2, 9)
	s := NewSession(Linear{})
	require.NoError(t, s.Init(X, X))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Precompute(ctx))
	assert.Equal(t, 0, s.CacheEntries())

	require.NoError(t, s.Precompute(context.Background()))
	assert.Equal(t, 30*31/2, s.CacheEntries())
}

func TestCacheBudgetFallsBackToCompute(t *testing.T) {
	X := randomSet(t, 600, 2, 4)
	// 600·601/2 doubles is about 1.4 MB
	s := NewSession(Linear{}, WithPrecompute(true), WithCacheBudgetMB(1))
	require.NoError(t, s.Init(X, X))

	var cfg *errors.ConfigError
	assert.True(t, errors.As(s.Precompute(context.Background()), &cfg))
	assert.InDelta(t, s.Compute(3, 7), s.Get(3, 7), 1e-12)
}

func TestConcurrentFirstGetBuildsOnce(t *testing.T) {
	X := randomSet(t, 50, 3, 13)
	counting := &countingFunction{Function: Linear{}}
	s := NewSession(counting, WithPrecompute(true))
	require.NoError(t, s.Init(X, X))

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Get(g%50, j)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, int64(50*51/2), counting.calls.Load())
}

func TestPackedIndex(t *testing.T) {
	assert.Equal(t, int64(0), packedIndex(0, 0))
	assert.Equal(t, int64(1), packedIndex(1, 0))
	assert.Equal(t, int64(2), packedIndex(1, 1))
	assert.Equal(t, packedIndex(3, 7), packedIndex(7, 3))

	// beyond 32-bit range: 70000·70001/2 + 69999
	assert.Equal(t, int64(2450104999), packedIndex(70000, 69999))
	assert.Equal(t, int64(2450035000), packedLen(70000))
}

func TestMatrixExport(t *testing.T) {
	lhs := randomSet(t, 6, 2, 21)
	rhs := randomSet(t, 4, 2, 22)
	s := NewSession(Euclidean{})
	require.NoError(t, s.Init(lhs, rhs))

	m, err := s.Matrix()
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 4, c)
	assert.InDelta(t, s.Compute(5, 3), m.At(5, 3), 1e-12)

	_, err = NewSession(Linear{}).Matrix()
	assert.Error(t, err)
}

func TestRebindLeavesOriginalUntouched(t *testing.T) {
	X := randomSet(t, 8, 2, 31)
	s := NewSession(Gaussian{Gamma: 0.3}, WithPrecompute(true))
	require.NoError(t, s.Init(X, X))
	before := s.Get(2, 5)

	view, err := features.Subset(X, []int{5, 2})
	require.NoError(t, err)
	fold, err := s.Rebind(view, view)
	require.NoError(t, err)

	assert.InDelta(t, before, fold.Get(0, 1), 1e-12)
	assert.Same(t, X, s.LHS())
	assert.Equal(t, before, s.Get(2, 5))
}

func TestPrecomputedKernel(t *testing.T) {
	K := mat.NewDense(3, 3, []float64{
		1, 0.5, 0.2,
		0.5, 1, 0.1,
		0.2, 0.1, 1,
	})
	idx := IndexSet(3)
	s := NewSession(Precomputed{Values: K})
	require.NoError(t, s.Init(idx, idx))
	assert.Equal(t, 0.1, s.Get(2, 1))

	bad := features.NewDenseSet(mat.NewDense(1, 1, []float64{7}))
	assert.Error(t, s.Init(bad, idx))
}

func TestPlotMatrix(t *testing.T) {
	X := randomSet(t, 12, 2, 41)
	s := NewSession(Euclidean{})
	require.NoError(t, s.Init(X, X))

	var buf bytes.Buffer
	require.NoError(t, s.PlotMatrix(&buf, "pairwise distances"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}
