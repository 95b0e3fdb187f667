package modes

import (
	"fmt"
	"strings"

	"github.com/CodexForgeBR/ccg/internal/state"
)

// DefaultMaxIterations bounds a Ralph loop started without an explicit limit.
const DefaultMaxIterations = 10

// Ralph drives the execute → verify → fix loop.
type Ralph struct {
	store *state.Store
}

func NewRalph(store *state.Store) *Ralph {
	return &Ralph{store: store}
}

// State returns the loop document, or nil when none exists.
func (r *Ralph) State() *state.RalphState {
	var s state.RalphState
	if !r.store.Read(state.DocRalph, &s) {
		return nil
	}
	return &s
}

func (r *Ralph) save(s *state.RalphState) error {
	if err := r.store.Write(state.DocRalph, s); err != nil {
		return fmt.Errorf("save ralph state: %w", err)
	}
	return nil
}

// Start begins a plain loop, replacing any previous one.
func (r *Ralph) Start(maxIterations int) (*state.RalphState, error) {
	return r.start(state.VariantPlain, maxIterations, nil)
}

// StartLinked begins a loop that tracks progress of the named team.
func (r *Ralph) StartLinked(teamName string, maxIterations, totalTasks int) (*state.RalphState, error) {
	return r.start(state.VariantComposite, maxIterations, &state.LinkedTeam{
		Enabled:    true,
		TeamName:   &teamName,
		TotalTasks: totalTasks,
	})
}

func (r *Ralph) start(v state.Variant, maxIterations int, team *state.LinkedTeam) (*state.RalphState, error) {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	s := &state.RalphState{
		Mode:          state.ModeRalph,
		Variant:       v,
		Active:        true,
		MaxIterations: maxIterations,
		LinkedTeam:    team,
		StartedAt:     r.store.Now(),
	}
	if err := r.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Ralph) loadActive() (*state.RalphState, error) {
	s := r.State()
	if s == nil {
		return nil, fmt.Errorf("ralph: %w", ErrNotStarted)
	}
	if !s.Active {
		return nil, fmt.Errorf("ralph: %w", ErrNotActive)
	}
	return s, nil
}

// NextIteration counts one more execute/verify pass.
func (r *Ralph) NextIteration() (*state.RalphState, error) {
	s, err := r.loadActive()
	if err != nil {
		return nil, err
	}
	s.Iteration++
	if err := r.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordVerification stores the outcome of a verify pass. A passing
// verification ends the loop.
func (r *Ralph) RecordVerification(v state.Verification) (*state.RalphState, error) {
	s := r.State()
	if s == nil {
		return nil, fmt.Errorf("ralph: %w", ErrNotStarted)
	}
	if v.Issues == nil {
		v.Issues = []string{}
	}
	v.Timestamp = r.store.Now()
	s.LastVerification = &v
	if v.Passed {
		s.Active = false
	}
	if err := r.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Decision is the answer to "should the loop keep going".
type Decision struct {
	Continue bool   `json:"continue" yaml:"continue"`
	Reason   string `json:"reason" yaml:"reason"`
}

// ShouldContinue decides whether another iteration should run. Hitting the
// iteration limit or a passing verification deactivates the loop.
func (r *Ralph) ShouldContinue() (Decision, error) {
	s := r.State()
	switch {
	case s == nil:
		return Decision{Reason: "Ralph not active"}, nil
	case !s.Active:
		return Decision{Reason: "Ralph completed or cancelled"}, nil
	case s.Iteration >= s.MaxIterations:
		s.Active = false
		return Decision{Reason: fmt.Sprintf("Max iterations reached (%d)", s.MaxIterations)}, r.save(s)
	case s.LastVerification != nil && s.LastVerification.Passed:
		s.Active = false
		return Decision{Reason: "Verification passed"}, r.save(s)
	}
	return Decision{Continue: true, Reason: fmt.Sprintf("Iteration %d/%d", s.Iteration, s.MaxIterations)}, nil
}

// SyncTeam copies the team's progress onto a linked loop.
func (r *Ralph) SyncTeam(team *state.TeamState) (*state.RalphState, error) {
	s := r.State()
	if s == nil {
		return nil, fmt.Errorf("ralph: %w", ErrNotStarted)
	}
	if s.Variant != state.VariantComposite || s.LinkedTeam == nil {
		return nil, ErrNotLinked
	}
	s.LinkedTeam.Workers = team.Workers
	s.LinkedTeam.CompletedTasks = team.CompletedTasks
	s.LinkedTeam.TotalTasks = team.TotalTasks
	if err := r.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

// Summary renders the loop for status output.
func (r *Ralph) Summary() string {
	s := r.State()
	if s == nil {
		return "Ralph not active."
	}

	status := "INACTIVE"
	if s.Active {
		status = "ACTIVE"
	}
	lines := []string{
		"Ralph Loop: " + status,
		fmt.Sprintf("Iteration: %d/%d", s.Iteration, s.MaxIterations),
	}
	if t := s.LinkedTeam; t != nil && t.TeamName != nil {
		lines = append(lines, fmt.Sprintf("Team: %s (%d/%d tasks)", *t.TeamName, t.CompletedTasks, t.TotalTasks))
	}
	if v := s.LastVerification; v != nil {
		result := "FAILED"
		if v.Passed {
			result = "PASSED"
		}
		lines = append(lines,
			"Last Verification: "+result,
			fmt.Sprintf("  Tests: %s | Build: %s | LSP: %s", mark(v.Tests), mark(v.Build), mark(v.LSP)),
		)
		if len(v.Issues) > 0 {
			lines = append(lines, "  Issues: "+strings.Join(v.Issues, ", "))
		}
	}
	return strings.Join(lines, "\n")
}

// Cancel deactivates the loop. A missing loop is left alone.
func (r *Ralph) Cancel() error {
	s := r.State()
	if s == nil {
		return nil
	}
	s.Active = false
	return r.save(s)
}

// Reset removes the loop document.
func (r *Ralph) Reset() error {
	return r.store.Delete(state.DocRalph)
}
