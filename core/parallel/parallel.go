// Package parallel splits index ranges across goroutines.
package parallel

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
)

// Workers returns the number of goroutines used for items units of work.
func Workers(items int) int {
	n := runtime.NumCPU()
	if n > items {
		n = items
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Parallelize divides items into contiguous ranges, one per CPU core,
// and runs fn(start, end) for each range concurrently. It returns once
// every range has been processed.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	numWorkers := Workers(items)
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn(0, items) on the calling goroutine when
// items <= threshold, otherwise it behaves like Parallelize.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, fn)
}

// TriangularRanges splits rows [0, n) of a lower triangle (row i holds i+1
// entries) into at most parts contiguous ranges of roughly equal entry count.
// The returned slice holds range boundaries: range k is [b[k], b[k+1]).
func TriangularRanges(n, parts int) []int {
	if n <= 0 {
		return []int{0}
	}
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	total := float64(n) * float64(n+1) / 2
	bounds := []int{0}
	for k := 1; k < parts; k++ {
		// smallest r with r(r+1)/2 >= k*total/parts
		target := total * float64(k) / float64(parts)
		r := int(math.Ceil((math.Sqrt(1+8*target) - 1) / 2))
		if r <= bounds[len(bounds)-1] {
			continue
		}
		if r >= n {
			break
		}
		bounds = append(bounds, r)
	}
	return append(bounds, n)
}

// ParallelizeTriangular runs fn over the rows of an n-row lower triangle with
// ranges balanced by entry count rather than row count.
func ParallelizeTriangular(n int, fn func(start, end int)) {
	bounds := TriangularRanges(n, Workers(n))
	var wg sync.WaitGroup
	for k := 0; k+1 < len(bounds); k++ {
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(bounds[k], bounds[k+1])
	}
	wg.Wait()
}

// ForEach runs fn(ctx, i) for every i in [0, items) on at most limit
// goroutines (limit <= 0 means one per CPU). All tasks run to completion;
// the first error by index order is returned. Panics inside fn are
// converted to errors. If ctx is cancelled, tasks not yet started are
// skipped and report ctx.Err().
func ForEach(ctx context.Context, items, limit int, fn func(ctx context.Context, i int) error) error {
	if items <= 0 {
		return nil
	}
	if limit <= 0 {
		limit = Workers(items)
	}
	errs := make([]error, items)
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := 0; i < items; i++ {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = errors.SafeExecute("parallel.ForEach", func() error {
				return fn(ctx, i)
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
