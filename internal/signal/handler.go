// Package signal handles SIGINT/SIGTERM for `ccg serve` and names the
// signals accepted by kill_job.
package signal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// SetupSignalHandler registers SIGINT and SIGTERM handlers.
// When a signal is received, it calls the onInterrupt callback (if non-nil),
// then cancels the context. The goroutine exits when either happens first.
func SetupSignalHandler(ctx context.Context, cancel context.CancelFunc, onInterrupt func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			if onInterrupt != nil {
				onInterrupt()
			}
			cancel()
		case <-ctx.Done():
			return
		}
	}()
}

// DefaultKill is the signal used when a kill request names none.
const DefaultKill = "SIGTERM"

// Parse maps "SIGTERM" or "SIGINT" (case-insensitive, "SIG" optional) to
// the signal and its canonical name. An empty name selects SIGTERM.
func Parse(name string) (os.Signal, string, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		n = DefaultKill
	}
	if !strings.HasPrefix(n, "SIG") {
		n = "SIG" + n
	}
	switch n {
	case "SIGTERM":
		return syscall.SIGTERM, n, nil
	case "SIGINT":
		return syscall.SIGINT, n, nil
	}
	return nil, "", fmt.Errorf("unsupported signal %q: want SIGTERM or SIGINT", name)
}
