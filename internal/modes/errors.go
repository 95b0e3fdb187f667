// Package modes implements the long-running orchestration modes: the Ralph
// execute/verify/fix loop, the Team task DAG and the Autopilot driver that
// walks the RPI phases. Every mode is a document in the state store; the
// types here only load, mutate and persist it.
package modes

import "errors"

var (
	// ErrNotStarted is returned when a mode's document does not exist.
	ErrNotStarted = errors.New("not started")
	// ErrNotActive is returned when a mode's document exists but the run
	// has ended.
	ErrNotActive = errors.New("no longer active")
	// ErrTaskNotFound is returned by team updates naming an unknown task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrNotLinked is returned when a plain Ralph loop is asked to track a
	// team.
	ErrNotLinked = errors.New("ralph loop is not linked to a team")
)
