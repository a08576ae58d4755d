package dbx

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// transientRetryDelay is the pause before the single retry.
var transientRetryDelay = 50 * time.Millisecond

// Retry runs fn and, if it fails with a transient error, runs it exactly once
// more. Non-transient errors are returned immediately.
func Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(transientRetryDelay))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if IsTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

// RetryValue is Retry for functions that return a value.
func RetryValue[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Retry(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
