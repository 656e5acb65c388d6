// Package parallel splits index ranges into contiguous chunks and runs them
// on goroutines. Every chunk owns a disjoint [start, end) range, so callers
// that write results by index get the same output as a sequential loop.
package parallel

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc"
	"golang.org/x/sync/errgroup"
)

// Workers resolves a requested worker count: values <= 0 mean runtime.NumCPU().
func Workers(requested int) int {
	if requested <= 0 {
		return runtime.NumCPU()
	}
	return requested
}

// chunks returns the [start, end) ranges for items split across workers.
func chunks(items, workers int) [][2]int {
	workers = Workers(workers)
	if workers > items {
		workers = items
	}
	chunkSize := (items + workers - 1) / workers

	ranges := make([][2]int, 0, workers)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

// Parallelize divides items into at most workers contiguous ranges and calls
// fn for each range concurrently. A panic in fn is re-raised in the caller.
func Parallelize(items, workers int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	ranges := chunks(items, workers)
	if len(ranges) == 1 {
		fn(0, items)
		return
	}

	var wg conc.WaitGroup
	for _, r := range ranges {
		wg.Go(func() { fn(r[0], r[1]) })
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items <= threshold and
// falls back to Parallelize otherwise.
func ParallelizeWithThreshold(items, threshold, workers int, fn func(start, end int)) {
	if items <= threshold || Workers(workers) == 1 {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, workers, fn)
}

// ForEachChunk is Parallelize for fallible work. The first error cancels ctx
// for the remaining chunks and is returned.
func ForEachChunk(ctx context.Context, items, workers int, fn func(ctx context.Context, start, end int) error) error {
	if items <= 0 {
		return ctx.Err()
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range chunks(items, workers) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, r[0], r[1])
		})
	}
	return g.Wait()
}
