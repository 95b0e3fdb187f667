package main

import (
	"context"
	"errors"

	"github.com/CodexForgeBR/ccg/internal/ai"
	"github.com/CodexForgeBR/ccg/internal/exitcode"
	"github.com/CodexForgeBR/ccg/internal/jobs"
	"github.com/CodexForgeBR/ccg/internal/modes"
	"github.com/CodexForgeBR/ccg/internal/rpi"
)

// exitError carries an explicit exit code. An empty message means the
// command already reported the problem.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func isSilent(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.msg == ""
}

// exitCode maps a command error to the process exit code.
func exitCode(ctx context.Context, err error) int {
	if err == nil {
		return exitcode.Success
	}
	var (
		ee  *exitError
		te  *rpi.TransitionError
		tmo *ai.TimeoutError
	)
	switch {
	case errors.As(err, &ee):
		return ee.code
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		return exitcode.Interrupted
	case errors.As(err, &te):
		return exitcode.InvalidTransition
	case errors.Is(err, rpi.ErrNoActiveState), errors.Is(err, modes.ErrNotStarted):
		return exitcode.NoActiveState
	case errors.As(err, &tmo):
		return exitcode.JobTimeout
	case errors.Is(err, jobs.ErrJobNotFound):
		return exitcode.NoActiveState
	}
	return exitcode.Error
}

// jobExit turns a finished job into an exit error, or nil when it completed.
func jobExit(job jobs.Job) error {
	switch job.Status {
	case jobs.StatusFailed:
		return &exitError{code: exitcode.JobFailed}
	case jobs.StatusTimeout:
		return &exitError{code: exitcode.JobTimeout}
	}
	return nil
}
