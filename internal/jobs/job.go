// Package jobs runs model requests in the background and tracks them by a
// short ticket id.
//
// All job state is owned by one registry goroutine; callers submit commands
// and read copies. Background executions report back through the same
// command channel, so a kill recorded by Cancel can never be overwritten by
// a completion that arrives later.
package jobs

import (
	"errors"
	"fmt"
	"time"
)

// Status is a job lifecycle state.
type Status string

const (
	StatusSpawned   Status = "spawned"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimeout   Status = "timeout"
)

// Active reports whether the job may still change on its own.
func (s Status) Active() bool {
	return s == StatusSpawned || s == StatusRunning
}

// Terminal reports whether the job has finished, failed or timed out.
func (s Status) Terminal() bool {
	return !s.Active()
}

// Job is a snapshot of one background execution.
type Job struct {
	ID            string     `json:"job_id" yaml:"job_id"`
	Provider      string     `json:"provider" yaml:"provider"`
	Status        Status     `json:"status" yaml:"status"`
	Model         string     `json:"model" yaml:"model"`
	AgentRole     string     `json:"agent_role" yaml:"agent_role"`
	PID           int        `json:"pid,omitempty" yaml:"pid,omitempty"`
	SpawnedAt     time.Time  `json:"spawned_at" yaml:"spawned_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Result        string     `json:"result,omitempty" yaml:"result,omitempty"`
	Error         string     `json:"error,omitempty" yaml:"error,omitempty"`
	KilledByUser  bool       `json:"killed_by_user,omitempty" yaml:"killed_by_user,omitempty"`
	UsedFallback  bool       `json:"used_fallback,omitempty" yaml:"used_fallback,omitempty"`
	FallbackModel string     `json:"fallback_model,omitempty" yaml:"fallback_model,omitempty"`
}

var (
	// ErrJobNotFound is returned for unknown job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobTerminal is returned when cancelling a job that already ended.
	ErrJobTerminal = errors.New("job is in terminal state")
	// ErrUnknownProvider is returned by Dispatch for an unregistered provider.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("job registry closed")
)

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrJobNotFound, id)
}

// Filter selects jobs in List.
type Filter string

const (
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
	FilterFailed    Filter = "failed" // includes timeout
	FilterAll       Filter = "all"
)

// ParseFilter validates a filter name; "" selects FilterActive.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case "":
		return FilterActive, nil
	case FilterActive, FilterCompleted, FilterFailed, FilterAll:
		return f, nil
	}
	return "", fmt.Errorf("invalid status filter %q: want active, completed, failed or all", s)
}

func (f Filter) match(s Status) bool {
	switch f {
	case FilterActive:
		return s.Active()
	case FilterCompleted:
		return s == StatusCompleted
	case FilterFailed:
		return s == StatusFailed || s == StatusTimeout
	case FilterAll:
		return true
	}
	return false
}
