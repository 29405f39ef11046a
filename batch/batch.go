// Package batch runs a function over independent items with bounded
// parallelism.
//
// Examples are embarrassingly parallel as a batch while being
// single-threaded individually, so this is the one place concurrency
// belongs in a training data pipeline.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach calls fn once per item, running at most limit calls
// concurrently. A limit below 1 means unbounded. The first error cancels
// the remaining work and is returned.
func ForEach[T any](ctx context.Context, items []T, limit int, fn func(context.Context, T) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, item)
		})
	}
	return g.Wait()
}

// Map applies fn to every item with bounded parallelism and collects the
// results in input order.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := fn(ctx, item)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
