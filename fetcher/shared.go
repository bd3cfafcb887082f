package fetcher

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// shared runs fn once per key across concurrent callers. fn gets a context
// detached from any single caller, so one caller giving up never fails the
// others; each caller still stops waiting when its own ctx is done.
func shared[T any](ctx context.Context, g *singleflight.Group, key string, fn func(context.Context) (T, error)) (T, error) {
	ch := g.DoChan(key, func() (interface{}, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
