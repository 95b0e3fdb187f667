// Package hooks answers the host assistant's lifecycle hooks.
package hooks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/CodexForgeBR/ccg/internal/logging"
	"github.com/CodexForgeBR/ccg/internal/modes"
	"github.com/CodexForgeBR/ccg/internal/state"
)

// StopInput is the part of the stop hook payload that is used.
type StopInput struct {
	Cwd string `json:"cwd"`
}

// StopOutput tells the host whether it may end the turn.
type StopOutput struct {
	Continue bool   `json:"continue"`
	Suppress bool   `json:"suppress,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Opener returns the state store of a project directory.
type Opener func(workDir string) (*state.Store, error)

// Stop decides the stop hook. The turn is held open while a Ralph loop or
// an autopilot run is active; any failure lets the host stop.
func Stop(in io.Reader, open Opener) StopOutput {
	allow := StopOutput{Continue: true}

	data, err := io.ReadAll(in)
	if err != nil {
		logging.Debugf("stop hook: read input: %v", err)
		return allow
	}
	var input StopInput
	if err := json.Unmarshal(data, &input); err != nil {
		logging.Debugf("stop hook: parse input: %v", err)
		return allow
	}
	if input.Cwd == "" {
		if input.Cwd, err = os.Getwd(); err != nil {
			return allow
		}
	}
	store, err := open(input.Cwd)
	if err != nil {
		logging.Debugf("stop hook: %v", err)
		return allow
	}
	return Check(store)
}

// Check reports whether an active mode in store should keep the turn open.
func Check(store *state.Store) StopOutput {
	if r := modes.NewRalph(store).State(); r != nil && r.Active {
		limit := r.MaxIterations
		if limit <= 0 {
			limit = modes.DefaultMaxIterations
		}
		return StopOutput{
			Suppress: true,
			Message: fmt.Sprintf("[oh-my-ccg] Ralph mode active (%d/%d). The boulder never stops. Use /oh-my-ccg:cancel to stop.",
				r.Iteration, limit),
		}
	}
	if a := modes.NewAutopilot(store, nil).State(); a != nil && a.Active {
		phase := string(a.RPIPhase)
		if phase == "" {
			phase = "unknown"
		}
		return StopOutput{
			Suppress: true,
			Message:  fmt.Sprintf("[oh-my-ccg] Autopilot active (phase: %s). Use /oh-my-ccg:cancel to stop.", phase),
		}
	}
	return StopOutput{Continue: true}
}
