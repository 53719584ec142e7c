package kernel

import (
	"context"
	"sync"

	"github.com/YuminosukeSato/kernelmachine/core/parallel"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"github.com/YuminosukeSato/kernelmachine/pkg/log"
)

// packedIndex returns the offset of (i, j) in a lower-triangular packed
// symmetric matrix. Arithmetic is 64-bit so n may exceed 65535.
func packedIndex(i, j int) int64 {
	hi, lo := int64(i), int64(j)
	if lo > hi {
		hi, lo = lo, hi
	}
	return hi*(hi+1)/2 + lo
}

// packedLen returns the number of entries in an n×n packed symmetric matrix.
func packedLen(n int) int64 {
	return int64(n) * int64(n+1) / 2
}

// symmetricCache is built at most once; a failed build leaves err set.
type symmetricCache struct {
	once sync.Once
	data []float64
	err  error
}

func (s *Session) ensureCache(ctx context.Context) *symmetricCache {
	c := s.cache.Load()
	if c == nil {
		nc := &symmetricCache{}
		if s.cache.CompareAndSwap(nil, nc) {
			c = nc
		} else {
			c = s.cache.Load()
			if c == nil {
				c = nc
			}
		}
	}
	c.once.Do(func() {
		c.data, c.err = s.buildCache(ctx)
		if c.err != nil && ctx.Err() != nil {
			// cancelled builds may be retried
			s.cache.CompareAndSwap(c, nil)
		}
	})
	return c
}

func (s *Session) buildCache(ctx context.Context) ([]float64, error) {
	const op = "Session.Precompute"
	n := s.lhs.NumVectors()
	entries := packedLen(n)
	if int64(int(entries)) != entries {
		return nil, errors.NewInternalConsistencyError(op, "packed cache of %d vectors overflows addressable memory", n)
	}
	sizeMB := float64(entries) * 8 / (1 << 20)
	logger := log.GetLogger().With(
		log.ComponentKey, "kernel",
		log.OperationKey, log.OperationPrecompute,
		log.KernelKey, s.fn.Name(),
	)
	if s.cacheMB > 0 && sizeMB > s.cacheMB {
		logger.Warn("kernel cache exceeds budget, falling back to direct evaluation",
			log.CacheSizeMBKey, s.cacheMB, log.SamplesKey, n)
		return nil, errors.NewConfigErrorf(op, "cache of %d vectors needs %.1f MB, budget is %.1f MB", n, sizeMB, s.cacheMB)
	}

	data := make([]float64, entries)
	parallel.ParallelizeTriangular(n, func(start, end int) {
		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				return
			}
			row := data[packedIndex(i, 0) : packedIndex(i, i)+1]
			vi := s.lhs.Vector(i)
			for j := range row {
				row[j] = s.fn.Compute(vi, s.lhs.Vector(j))
			}
		}
	})
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "kernel cache build cancelled")
	}
	logger.Debug("kernel cache built", log.SamplesKey, n, log.CacheEntriesKey, entries)
	return data, nil
}
