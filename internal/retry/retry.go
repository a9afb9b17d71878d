// Package retry runs an operation under an explicit retry policy.
package retry

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// Policy determines how many times an operation is attempted, how long to wait between
// attempts and which errors are worth another attempt.
type Policy struct {
	// MaxAttempts counts the first call. Values below 1 are treated as 1.
	MaxAttempts int
	// Backoff returns the wait after the given failed attempt (1-based).
	Backoff func(attempt int) time.Duration
	// Retryable reports whether err should trigger another attempt.
	Retryable func(err error) bool
}

// ExponentialJitter returns base * 2^(attempt-1) plus a uniform random jitter in [0, jitter).
func ExponentialJitter(base, jitter time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		delay := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
		if jitter > 0 {
			delay += rand.N(jitter)
		}
		return delay
	}
}

// NoBackoff retries immediately.
func NoBackoff(int) time.Duration { return 0 }

// Do calls fn until it succeeds, returns an error the policy does not retry, the attempts are
// exhausted or ctx is done. The last error from fn is returned unchanged.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	attempts := max(p.MaxAttempts, 1)

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if p.Retryable == nil || !p.Retryable(err) {
			return zero, err
		}
		if attempt == attempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		slog.Warn("Attempt failed, retrying", "attempt", attempt, "max_attempts", attempts, "delay", delay, "err", err)

		if err := sleep(ctx, delay); err != nil {
			return zero, lastErr
		}
	}

	slog.Error("All attempts failed", "attempts", attempts, "err", lastErr)
	return zero, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
