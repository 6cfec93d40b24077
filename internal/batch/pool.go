package batch

import (
	"context"
	"runtime"
	"sync"
)

// Workers normalizes a configured worker count, defaulting to the number of
// available cores.
func Workers(configured int) int {
	if configured > 0 {
		return configured
	}
	return runtime.GOMAXPROCS(0)
}

// ForEach runs fn for every item on a bounded pool of workers and waits for
// all of them. Items are fully independent: a failing or slow item never
// blocks the others beyond pool capacity. fn observes cancellation through
// the passed context; items whose slot opens after cancellation are skipped.
func ForEach[T any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, item T)) {
	if len(items) == 0 {
		return
	}
	workers = Workers(workers)
	if workers > len(items) {
		workers = len(items)
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			fn(ctx, item)
		}(item)
	}
	wg.Wait()
}
