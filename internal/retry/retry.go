// Package retry re-runs operations that fail with transient errors.
package retry

import (
	"context"
	"time"

	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
)

// Config controls the backoff schedule.
type Config struct {
	MaxRetries        int
	InitialDelay      time.Duration
	BackoffMultiplier float64
	MaxDelay          time.Duration
}

// DefaultConfig returns three retries starting at 100ms and doubling.
func DefaultConfig() Config {
	return Config{
		MaxRetries:        3,
		InitialDelay:      100 * time.Millisecond,
		BackoffMultiplier: 2,
		MaxDelay:          2 * time.Second,
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, or the retry
// budget is spent. The last error is returned unchanged.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	_, err := Value(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value is Do for operations that produce a value.
func Value[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	delay := cfg.InitialDelay
	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil || attempt >= cfg.MaxRetries || !domainerrors.Retryable(err) {
			return v, err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return v, err
		case <-timer.C:
		}

		delay = nextDelay(delay, cfg)
	}
}

func nextDelay(current time.Duration, cfg Config) time.Duration {
	mult := cfg.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	next := time.Duration(float64(current) * mult)
	if cfg.MaxDelay > 0 && next > cfg.MaxDelay {
		next = cfg.MaxDelay
	}
	return next
}
