package scheduler

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach calls fn for every item with at most workers calls in flight. The
// first error cancels the context passed to the remaining calls and is
// returned once all started calls have finished.
func ForEach[T any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, item T) error) error {
	if workers <= 0 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return fn(ctx, item)
		})
	}
	return g.Wait()
}
