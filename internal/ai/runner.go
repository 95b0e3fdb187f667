// Package ai runs model CLIs (gemini, codex, claude) as subprocesses.
//
// A single generic pipeline serves every backend: a Spawner runs one attempt
// of one model, a RetryRunner retries rate-limited attempts with jittered
// backoff, and an Executor walks the backend's model fallback chain. Backends
// only contribute their binary, argument list, output format and chain.
package ai

import (
	"context"
	"fmt"
	"time"
)

// MaxOutputBytes caps what is kept of each of stdout and stderr. Excess
// output is read and dropped.
const MaxOutputBytes = 10 * 1024 * 1024

// Request is one prompt for a backend.
type Request struct {
	Prompt  string
	Role    string
	Files   []string
	WorkDir string

	// Model overrides the backend default. For backends with a fallback
	// chain it is the first model tried.
	Model string

	// OnSpawn is called with the pid of every subprocess started for this
	// request, including retries and fallbacks.
	OnSpawn func(pid int)
}

// Result is the answer of a successful request.
type Result struct {
	Content       string `json:"content"`
	Model         string `json:"model"`
	UsedFallback  bool   `json:"usedFallback,omitempty"`
	FallbackModel string `json:"fallbackModel,omitempty"`
}

// Invocation is a fully assembled prompt ready to be sent to one model.
type Invocation struct {
	Prompt  string
	WorkDir string
	OnSpawn func(pid int)
}

// ModelRunner runs one invocation against one model.
type ModelRunner interface {
	RunModel(ctx context.Context, inv Invocation, model string) (string, error)
}

// RateLimitError is returned when the CLI output carries a rate-limit
// signature. It is the only error RetryWithBackoff retries.
type RateLimitError struct {
	Backend       string
	Model         string
	Output        string
	UnderlyingErr error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (model %s): %s", e.Backend, e.Model, e.Output)
}

func (e *RateLimitError) Unwrap() error {
	return e.UnderlyingErr
}

// ModelNotFoundError means the backend rejected the model name.
type ModelNotFoundError struct {
	Backend string
	Model   string
	Output  string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("%s model not found: %s", e.Backend, e.Model)
}

// ExitError is a non-zero exit that is neither a rate limit nor a missing
// model. Tail holds the end of stderr+stdout.
type ExitError struct {
	Backend string
	Code    int
	Tail    string
	Err     error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s error (exit %d): %s", e.Backend, e.Code, e.Tail)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// SpawnError means the subprocess could not be started at all.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// TimeoutError means the subprocess was terminated by the wall-clock limit
// or the inactivity watchdog.
type TimeoutError struct {
	Backend    string
	After      time.Duration
	Inactivity bool
}

func (e *TimeoutError) Error() string {
	if e.Inactivity {
		return fmt.Sprintf("%s produced no output for %s", e.Backend, e.After)
	}
	return fmt.Sprintf("%s timed out after %s", e.Backend, e.After)
}
