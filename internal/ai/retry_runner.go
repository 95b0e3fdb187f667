package ai

import (
	"context"
	"time"

	"github.com/CodexForgeBR/ccg/internal/logging"
	"github.com/CodexForgeBR/ccg/internal/ratelimit"
)

// RetryRunner wraps any ModelRunner with RetryWithBackoff retry logic.
type RetryRunner struct {
	Inner    ModelRunner
	RetryCfg RetryConfig
}

// RunModel delegates to the inner runner, retrying rate-limited attempts.
func (r *RetryRunner) RunModel(ctx context.Context, inv Invocation, model string) (string, error) {
	cfg := r.RetryCfg
	if cfg.OnRetry == nil {
		cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
			logging.Warnf("%s: rate limited, retry %d/%d in %s", model, attempt+1, cfg.MaxRetries, ratelimit.FormatDuration(delay))
		}
	}

	var out string
	err := RetryWithBackoff(ctx, cfg, func() error {
		var runErr error
		out, runErr = r.Inner.RunModel(ctx, inv, model)
		return runErr
	})
	return out, err
}
