package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes how an external call is retried: attempt budget, backoff
// schedule and which errors are worth retrying. One policy value is shared by
// all call sites against the same service.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration
	// MaxBackoff caps the exponential growth.
	MaxBackoff time.Duration
	// Multiplier scales the backoff after each failed attempt. Values <= 1
	// are treated as 2.
	Multiplier float64
	// Retryable reports whether the error is transient. A nil predicate
	// retries every error.
	Retryable func(error) bool
}

// Default returns a policy suited to rate-limited HTTP APIs: 3 attempts,
// 2s initial backoff doubling to at most 30s.
func Default() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2,
	}
}

// Do runs fn until it succeeds, the attempt budget is spent, a
// non-retryable error occurs, or the context is cancelled. The last error is
// returned wrapped with the attempt count.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	mult := p.Multiplier
	if mult <= 1 {
		mult = 2
	}

	backoff := p.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * mult)
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}

	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
