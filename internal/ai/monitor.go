package ai

import (
	"context"
	"errors"
	"time"
)

// errInactive is the cancel cause recorded when the watchdog fires.
var errInactive = errors.New("inactivity timeout")

// MonitorConfig configures the inactivity watchdog.
type MonitorConfig struct {
	InactivityTimeout time.Duration
	// Progress returns the number of bytes produced so far.
	Progress     func() int64
	TickInterval time.Duration // default 2s, configurable for testing
}

// MonitorProcess cancels ctx with errInactive when Progress has not moved
// for InactivityTimeout. It returns when ctx is done.
func MonitorProcess(ctx context.Context, cancel context.CancelCauseFunc, cfg MonitorConfig) {
	if cfg.InactivityTimeout <= 0 || cfg.Progress == nil {
		return
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = 2 * time.Second
	}

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	lastSize := cfg.Progress()
	lastChange := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if size := cfg.Progress(); size != lastSize {
				lastSize = size
				lastChange = time.Now()
				continue
			}
			if time.Since(lastChange) >= cfg.InactivityTimeout {
				cancel(errInactive)
				return
			}
		}
	}
}
