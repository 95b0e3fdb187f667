package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedJitter(v float64) func() float64 {
	return func() float64 { return v }
}

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{Initial: 5 * time.Second, Max: 60 * time.Second, Jitter: fixedJitter(1)}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 5 * time.Second},
		{1, 10 * time.Second},
		{2, 20 * time.Second},
		{3, 40 * time.Second},
		{4, 60 * time.Second},
		{10, 60 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestBackoff_DelayJitterRange(t *testing.T) {
	b := Backoff{Initial: 4 * time.Second, Max: time.Minute, Jitter: fixedJitter(0)}
	assert.Equal(t, 2*time.Second, b.Delay(0), "lowest jitter halves the delay")

	b.Jitter = nil
	for i := 0; i < 100; i++ {
		d := b.Delay(1)
		assert.GreaterOrEqual(t, d, 4*time.Second)
		assert.LessOrEqual(t, d, 8*time.Second)
	}
}

func TestSleep_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleep_Elapses(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 10*time.Millisecond))
	assert.NoError(t, Sleep(context.Background(), 0))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{30 * time.Second, "30s"},
		{330 * time.Second, "5m 30s"},
		{time.Hour, "1h"},
		{2*time.Hour + 15*time.Minute + 30*time.Second, "2h 15m 30s"},
		{1500 * time.Millisecond, "2s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
	}
}
