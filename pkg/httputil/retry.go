package httputil

import (
	"context"
	"time"

	"github.com/matzehuels/ogdraster/pkg/errors"
)

// maxRetryAfter bounds how long a Retry-After header may stall a search
// page or asset download.
const maxRetryAfter = 30 * time.Second

// RetryableError marks a failed catalog request as transient.
// [CheckResponse] returns it for 5xx and 429 responses, and the STAC client
// wraps transport failures and interrupted asset reads in it.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry calls fn up to attempts times. Only [RetryableError] failures are
// attempted again; anything else is returned at once.
//
// The wait starts at delay and doubles after each attempt. When the catalog
// answered 429 with Retry-After, the wait is at least that long, capped at
// 30 seconds. Retry returns the last error, or ctx.Err() if ctx ends while
// waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if lastErr = fn(); lastErr == nil || !isRetryable(lastErr) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(backoff(lastErr, delay))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return lastErr
}

// backoff returns the wait before the attempt that follows err.
func backoff(err error, delay time.Duration) time.Duration {
	var rl *errors.RateLimitedError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return max(delay, min(time.Duration(rl.RetryAfter)*time.Second, maxRetryAfter))
	}
	return delay
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
