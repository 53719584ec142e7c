package kernel

import (
	"context"
	"sync/atomic"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/core/parallel"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Session binds a Function to a pair of feature sets.
//
// Get and Compute are safe for concurrent use. Init and SetPrecompute must
// not race with readers.
type Session struct {
	fn       Function
	lhs, rhs features.Set
	cacheMB  float64

	precompute atomic.Bool
	cache      atomic.Pointer[symmetricCache]
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithPrecompute enables the lazily built symmetric cache.
func WithPrecompute(on bool) SessionOption {
	return func(s *Session) { s.precompute.Store(on) }
}

// WithCacheBudgetMB caps the symmetric cache size. Zero means unlimited.
func WithCacheBudgetMB(mb float64) SessionOption {
	return func(s *Session) { s.cacheMB = mb }
}

// NewSession creates an unbound Session for fn.
func NewSession(fn Function, opts ...SessionOption) *Session {
	s := &Session{fn: fn}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init binds lhs and rhs, dropping any cache. It fails with a ConfigError
// when the function is nil or rejects the feature sets.
func (s *Session) Init(lhs, rhs features.Set) error {
	if s.fn == nil {
		return errors.NewConfigError("Session.Init", errors.ErrNilKernel.Error())
	}
	if err := s.fn.Check(lhs, rhs); err != nil {
		return err
	}
	s.lhs, s.rhs = lhs, rhs
	s.cache.Store(nil)
	return nil
}

// Rebind returns a new Session over lhs and rhs with the same function and
// cache settings. The receiver is not modified.
func (s *Session) Rebind(lhs, rhs features.Set) (*Session, error) {
	ns := &Session{fn: s.fn, cacheMB: s.cacheMB}
	ns.precompute.Store(s.precompute.Load())
	if err := ns.Init(lhs, rhs); err != nil {
		return nil, err
	}
	return ns, nil
}

// Function returns the bound similarity function.
func (s *Session) Function() Function { return s.fn }

// LHS returns the left-hand feature set.
func (s *Session) LHS() features.Set { return s.lhs }

// RHS returns the right-hand feature set.
func (s *Session) RHS() features.Set { return s.rhs }

// Bound reports whether Init has succeeded.
func (s *Session) Bound() bool { return s.lhs != nil && s.rhs != nil }

// Symmetric reports whether lhs and rhs are the same set.
func (s *Session) Symmetric() bool {
	return s.Bound() && s.lhs == s.rhs
}

// Compute evaluates the function at (i, j) with no caching.
func (s *Session) Compute(i, j int) float64 {
	return s.fn.Compute(s.lhs.Vector(i), s.rhs.Vector(j))
}

// Get returns k(i, j).
//
// Negative indices yield 0. In the symmetric case an index in [n, 2n) is
// mirrored to 2n-1-idx, and when precomputation is on the packed cache is
// built on first use and served from then on. Otherwise Get falls back to
// Compute.
func (s *Session) Get(i, j int) float64 {
	if i < 0 || j < 0 {
		return 0
	}
	if s.Symmetric() {
		n := s.lhs.NumVectors()
		i, j = mirror(i, n), mirror(j, n)
		if s.precompute.Load() {
			if c := s.ensureCache(context.Background()); c.err == nil {
				return c.data[packedIndex(i, j)]
			}
		}
	}
	return s.Compute(i, j)
}

func mirror(idx, n int) int {
	if idx >= n {
		return 2*n - 1 - idx
	}
	return idx
}

// SetPrecompute toggles the symmetric cache. Turning it off frees the cache
// immediately; turning it on defers the build to the next Get or Precompute.
func (s *Session) SetPrecompute(on bool) {
	s.precompute.Store(on)
	if !on {
		s.cache.Store(nil)
	}
}

// Precompute builds the symmetric cache now, in parallel. It requires
// lhs == rhs. Concurrent callers and first Gets share a single build.
func (s *Session) Precompute(ctx context.Context) error {
	if !s.Bound() {
		return errors.NewConfigError("Session.Precompute", errors.ErrUnboundSession.Error())
	}
	if !s.Symmetric() {
		return errors.NewConfigError("Session.Precompute", "precomputation requires lhs and rhs to be the same set")
	}
	s.precompute.Store(true)
	return s.ensureCache(ctx).err
}

// CacheEntries returns the number of cached values, zero when no cache is built.
func (s *Session) CacheEntries() int {
	c := s.cache.Load()
	if c == nil {
		return 0
	}
	return len(c.data)
}

// Matrix returns the full lhs×rhs matrix, filled in parallel through Get.
func (s *Session) Matrix() (*mat.Dense, error) {
	if !s.Bound() {
		return nil, errors.NewConfigError("Session.Matrix", errors.ErrUnboundSession.Error())
	}
	m, n := s.lhs.NumVectors(), s.rhs.NumVectors()
	if m == 0 || n == 0 {
		return nil, errors.NewModelError("Session.Matrix", "empty data", errors.ErrEmptyData)
	}
	out := mat.NewDense(m, n, nil)
	parallel.Parallelize(m, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < n; j++ {
				out.Set(i, j, s.Get(i, j))
			}
		}
	})
	return out, nil
}
