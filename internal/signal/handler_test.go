package signal

import (
	"context"
	"os"
	"runtime"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupSignalHandler_SignalCallsCallbackAndCancels(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signals to self are unix-only")
	}
	for _, sig := range []syscall.Signal{syscall.SIGINT, syscall.SIGTERM} {
		t.Run(sig.String(), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			var called atomic.Bool
			SetupSignalHandler(ctx, cancel, func() { called.Store(true) })
			time.Sleep(50 * time.Millisecond)

			require.NoError(t, syscall.Kill(os.Getpid(), sig))

			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
				t.Fatal("context was not cancelled")
			}
			assert.True(t, called.Load())
			assert.ErrorIs(t, ctx.Err(), context.Canceled)
		})
	}
}

func TestSetupSignalHandler_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var called atomic.Bool
	SetupSignalHandler(ctx, cancel, func() { called.Store(true) })

	cancel()
	time.Sleep(20 * time.Millisecond)
	assert.False(t, called.Load(), "callback runs only on a signal")
}

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantSig  os.Signal
	}{
		{"", "SIGTERM", syscall.SIGTERM},
		{"SIGTERM", "SIGTERM", syscall.SIGTERM},
		{"sigint", "SIGINT", syscall.SIGINT},
		{"INT", "SIGINT", syscall.SIGINT},
	}
	for _, tt := range tests {
		sig, name, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.wantName, name)
		assert.Equal(t, tt.wantSig, sig)
	}

	_, _, err := Parse("SIGKILL")
	assert.Error(t, err)
}
