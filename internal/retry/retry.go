package retry

import (
	"context"
	"math/rand"
	"time"

	apperrors "github.com/tommy2310DK/Aspect4/internal/errors"
)

// WithRetry runs fn up to attempts times with exponential backoff and
// jitter. It stops early when the context is cancelled or when the error is
// known not to be retryable (authentication failures, client-side backend
// rejections).
func WithRetry(
	ctx context.Context,
	attempts int,
	baseDelay time.Duration,
	fn func() error,
) error {
	var err error

	for i := 1; i <= attempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err = fn()
		if err == nil {
			return nil
		}

		// Retrying a non-retryable error only burns the backend's goodwill.
		if !apperrors.IsRetryable(err) {
			return err
		}

		if i == attempts {
			break
		}

		sleep := baseDelay * time.Duration(1<<uint(i-1))
		jitter := time.Duration(rand.Int63n(int64(baseDelay)))
		totalSleep := sleep + jitter

		select {
		case <-time.After(totalSleep):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
