package ratelimit

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Backoff computes jittered exponential retry delays.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	// Jitter returns a value in [0,1). Defaults to math/rand.
	Jitter func() float64
}

// Delay returns min(Initial*2^attempt, Max) scaled by a factor in [0.5, 1.0).
func (b Backoff) Delay(attempt int) time.Duration {
	base := b.Initial
	for i := 0; i < attempt && (b.Max <= 0 || base < b.Max); i++ {
		base *= 2
	}
	if b.Max > 0 && base > b.Max {
		base = b.Max
	}

	jitter := b.Jitter
	if jitter == nil {
		jitter = rand.Float64
	}
	return time.Duration(float64(base) * (0.5 + 0.5*jitter()))
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
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

// FormatDuration renders a delay for retry log lines, e.g. "1m 30s".
func FormatDuration(d time.Duration) string {
	seconds := int64(d.Round(time.Second) / time.Second)
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if secs > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", secs))
	}

	return strings.Join(parts, " ")
}
