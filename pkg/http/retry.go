package http

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig controls Retry. Zero values fall back to a single
// attempt with no backoff.
type RetryConfig struct {
	Retries int
	Backoff time.Duration
}

// Retry runs fn up to cfg.Retries+1 times, waiting cfg.Backoff between
// attempts. The context cancels the wait as well as the attempts.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	attempts := cfg.Retries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if i < attempts-1 && cfg.Backoff > 0 {
			select {
			case <-time.After(cfg.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
