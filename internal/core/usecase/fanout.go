package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// fanOut runs fn for every query and returns the outputs in input order.
// limit <= 1 runs sequentially.
func fanOut[T any](ctx context.Context, limit int, queries []string, fn func(context.Context, string) (T, error)) ([]T, error) {
	out := make([]T, len(queries))
	if limit <= 1 || len(queries) < 2 {
		for i, query := range queries {
			value, err := fn(ctx, query)
			if err != nil {
				return nil, err
			}
			out[i] = value
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, query := range queries {
		g.Go(func() error {
			value, err := fn(gctx, query)
			if err != nil {
				return err
			}
			out[i] = value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
