package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Run processes items in fixed-size batches, running the items of one batch
// concurrently and sleeping between batches. Free-tier model quotas reset on
// a per-minute window, which is what the inter-batch delay is for.
//
// Results keep the order of the input. The first error cancels the remaining
// work and is returned; callers that want per-item error tolerance absorb
// errors inside fn.
func Run[T, R any](ctx context.Context, items []T, size int, delay time.Duration, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	if size <= 0 {
		size = 1
	}

	results := make([]R, len(items))

	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				r, err := fn(gctx, items[i])
				if err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
				results[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if end < len(items) && delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return results, nil
}
