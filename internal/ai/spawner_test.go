package ai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawner_PromptOverStdinAndWorkDir(t *testing.T) {
	script := fakeCLI(t, `
echo "cwd=$(pwd)"
echo "stdin=$(cat)"
`)
	dir := t.TempDir()
	s := &Spawner{Backend: &GeminiBackend{}, Binary: script}

	out, err := s.RunModel(context.Background(), Invocation{Prompt: "hello there", WorkDir: dir}, "m")
	require.NoError(t, err)

	resolved, _ := filepath.EvalSymlinks(dir)
	assert.Contains(t, out, "stdin=hello there")
	assert.True(t, strings.Contains(out, "cwd="+dir) || strings.Contains(out, "cwd="+resolved), out)
}

func TestSpawner_ParsesBackendFormat(t *testing.T) {
	script := fakeCLI(t, `
cat > /dev/null
echo '{"type":"assistant","message":{"content":[{"type":"text","text":"partial"}]}}'
echo 'noise'
echo '{"type":"result","result":"final"}'
`)
	s := &Spawner{Backend: &ClaudeBackend{}, Binary: script}

	out, err := s.RunModel(context.Background(), Invocation{}, "sonnet")
	require.NoError(t, err)
	assert.Equal(t, "final", out)
}

func TestSpawner_FailureClassification(t *testing.T) {
	tests := []struct {
		name   string
		script string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "rate limit",
			script: `echo "RESOURCE_EXHAUSTED: quota" >&2; exit 1`,
			check: func(t *testing.T, err error) {
				var rl *RateLimitError
				assert.True(t, errors.As(err, &rl))
			},
		},
		{
			name:   "model not found",
			script: `echo "model is not supported" >&2; exit 1`,
			check: func(t *testing.T, err error) {
				var nf *ModelNotFoundError
				require.True(t, errors.As(err, &nf))
				assert.Equal(t, "m1", nf.Model)
			},
		},
		{
			name:   "other exit carries tail of combined output",
			script: `echo "stdout line"; echo "fatal: broken" >&2; exit 3`,
			check: func(t *testing.T, err error) {
				var ee *ExitError
				require.True(t, errors.As(err, &ee))
				assert.Equal(t, 3, ee.Code)
				assert.Equal(t, "fatal: broken\nstdout line", ee.Tail)
				assert.Contains(t, err.Error(), "gemini error (exit 3)")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Spawner{Backend: &GeminiBackend{}, Binary: fakeCLI(t, "cat > /dev/null\n"+tt.script)}
			_, err := s.RunModel(context.Background(), Invocation{}, "m1")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestSpawner_ErrorTailIsBounded(t *testing.T) {
	script := fakeCLI(t, `
cat > /dev/null
i=0
while [ $i -lt 300 ]; do echo "line $i of noise"; i=$((i+1)); done >&2
exit 1
`)
	s := &Spawner{Backend: &CodexBackend{}, Binary: script}
	_, err := s.RunModel(context.Background(), Invocation{}, "m")

	var ee *ExitError
	require.True(t, errors.As(err, &ee))
	assert.LessOrEqual(t, len(ee.Tail), errorTailLen)
	assert.True(t, strings.HasSuffix(ee.Tail, "line 299 of noise"))
}

func TestSpawner_SpawnError(t *testing.T) {
	s := &Spawner{Backend: &CodexBackend{}, Binary: filepath.Join(t.TempDir(), "missing-binary")}
	_, err := s.RunModel(context.Background(), Invocation{}, "m")

	var se *SpawnError
	require.True(t, errors.As(err, &se))
}

func TestSpawner_HardTimeout(t *testing.T) {
	script := fakeCLI(t, "cat > /dev/null\nsleep 10\n")
	s := &Spawner{Backend: &GeminiBackend{}, Binary: script, Timeout: 200 * time.Millisecond, TermGrace: time.Second}

	start := time.Now()
	_, err := s.RunModel(context.Background(), Invocation{}, "m")

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.False(t, te.Inactivity)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSpawner_InactivityWatchdog(t *testing.T) {
	script := fakeCLI(t, "cat > /dev/null\necho started\nsleep 10\n")
	s := &Spawner{
		Backend:           &GeminiBackend{},
		Binary:            script,
		Timeout:           time.Minute,
		InactivityTimeout: 100 * time.Millisecond,
		TermGrace:         time.Second,
	}

	// The monitor ticks every 2s by default, so this takes a few seconds.
	_, err := s.RunModel(context.Background(), Invocation{}, "m")
	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.True(t, te.Inactivity)
}

func TestSpawner_CallerCancellation(t *testing.T) {
	script := fakeCLI(t, "cat > /dev/null\nsleep 10\n")
	procs := NewProcessTable()
	s := &Spawner{Backend: &GeminiBackend{}, Binary: script, Procs: procs, TermGrace: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	spawned := make(chan int, 1)
	go func() {
		pid := <-spawned
		assert.True(t, procs.Has(pid))
		cancel()
	}()

	_, err := s.RunModel(ctx, Invocation{OnSpawn: func(pid int) { spawned <- pid }}, "m")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, procs.Len())
}

func TestCappedBuffer(t *testing.T) {
	b := newCappedBuffer(5)
	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = b.Write([]byte("defgh"))
	require.NoError(t, err)
	assert.Equal(t, 5, n, "excess bytes are accepted and dropped")

	assert.Equal(t, "abcde", b.String())
	assert.EqualValues(t, 8, b.Total())
}

func TestProcessTable_SignalIgnoresUntracked(t *testing.T) {
	procs := NewProcessTable()
	assert.NoError(t, procs.Signal(os.Getpid()+100000, os.Interrupt))

	procs.Add(42)
	assert.True(t, procs.Has(42))
	procs.Remove(42)
	assert.False(t, procs.Has(42))
}
