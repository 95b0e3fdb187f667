package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CodexForgeBR/ccg/internal/ratelimit"
)

// RetryConfig configures rate-limit retries.
type RetryConfig struct {
	MaxRetries int
	Backoff    ratelimit.Backoff
	OnRetry    func(attempt int, delay time.Duration, err error)

	// Sleep waits between attempts; defaults to ratelimit.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryConfig is 3 retries starting at 5s and capped at 60s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		Backoff:    ratelimit.Backoff{Initial: 5 * time.Second, Max: 60 * time.Second},
	}
}

// RetryWithBackoff calls fn until it succeeds, returns a non-rate-limit
// error, or MaxRetries retries have been spent. The delay before retry n is
// Backoff.Delay(n).
func RetryWithBackoff(ctx context.Context, cfg RetryConfig, fn func() error) error {
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = ratelimit.Sleep
	}

	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rateLimitErr *RateLimitError
		if !errors.As(err, &rateLimitErr) {
			return err
		}
		if attempt >= cfg.MaxRetries {
			return fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, err)
		}

		delay := cfg.Backoff.Delay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry wait cancelled: %w", err)
		}
	}
}
