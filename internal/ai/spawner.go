package ai

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/CodexForgeBR/ccg/internal/parser"
	"github.com/CodexForgeBR/ccg/internal/ratelimit"
)

const (
	// DefaultTimeout is the wall-clock limit of one subprocess attempt.
	DefaultTimeout = 5 * time.Minute

	errorTailLen = 1000
)

var errHardTimeout = errors.New("hard timeout")

// Spawner runs a single attempt of a backend CLI. It implements ModelRunner.
type Spawner struct {
	Backend Backend

	// Binary overrides Backend.Binary(), mainly for tests.
	Binary            string
	Timeout           time.Duration
	InactivityTimeout time.Duration
	Procs             *ProcessTable

	// TermGrace is how long a terminated process may take to exit before
	// its pipes are closed forcibly.
	TermGrace time.Duration
}

func (s *Spawner) binary() string {
	if s.Binary != "" {
		return s.Binary
	}
	return s.Backend.Binary()
}

// RunModel starts the CLI, writes the prompt to its stdin and waits for it.
// The returned string is the last assistant message of a successful run.
func (s *Spawner) RunModel(ctx context.Context, inv Invocation, model string) (string, error) {
	name := s.Backend.Name()
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	grace := s.TermGrace
	if grace <= 0 {
		grace = 5 * time.Second
	}

	attemptCtx, cancelAttempt := context.WithTimeoutCause(ctx, timeout, errHardTimeout)
	defer cancelAttempt()
	runCtx, cancelRun := context.WithCancelCause(attemptCtx)
	defer cancelRun(nil)

	cmd := exec.CommandContext(runCtx, s.binary(), s.Backend.BuildArgs(model)...)
	cmd.Dir = inv.WorkDir
	cmd.Stdin = strings.NewReader(inv.Prompt)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = grace

	stdout := newCappedBuffer(MaxOutputBytes)
	stderr := newCappedBuffer(MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		if ratelimit.IsRateLimited(err.Error()) {
			return "", &RateLimitError{Backend: name, Model: model, Output: err.Error(), UnderlyingErr: err}
		}
		return "", &SpawnError{Binary: s.binary(), Err: err}
	}

	pid := cmd.Process.Pid
	if s.Procs != nil {
		s.Procs.Add(pid)
		defer s.Procs.Remove(pid)
	}
	if inv.OnSpawn != nil {
		inv.OnSpawn(pid)
	}

	go MonitorProcess(runCtx, cancelRun, MonitorConfig{
		InactivityTimeout: s.InactivityTimeout,
		Progress:          func() int64 { return stdout.Total() + stderr.Total() },
	})

	waitErr := cmd.Wait()

	if runCtx.Err() != nil {
		// The caller's own cancellation (e.g. a killed job) is reported as is.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(context.Cause(runCtx), errInactive) {
			return "", &TimeoutError{Backend: name, After: s.InactivityTimeout, Inactivity: true}
		}
		return "", &TimeoutError{Backend: name, After: timeout}
	}

	if waitErr != nil {
		combined := stderr.String() + stdout.String()
		code := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		}

		switch ratelimit.Classify(combined) {
		case ratelimit.ClassModelNotFound:
			return "", &ModelNotFoundError{Backend: name, Model: model, Output: tail(combined, errorTailLen)}
		case ratelimit.ClassRateLimit:
			return "", &RateLimitError{Backend: name, Model: model, Output: tail(combined, errorTailLen), UnderlyingErr: waitErr}
		}
		return "", &ExitError{Backend: name, Code: code, Tail: strings.TrimSpace(tail(combined, errorTailLen)), Err: waitErr}
	}

	return parser.LastMessage(s.Backend.Format(), stdout.String()), nil
}
