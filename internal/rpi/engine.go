// Package rpi implements the research → plan → impl → review workflow for a
// single change. The state is a singleton document persisted after every
// accepted mutation.
package rpi

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/CodexForgeBR/ccg/internal/state"
)

// ErrNoActiveState is returned by mutating calls when init has not been run.
var ErrNoActiveState = errors.New("no active RPI state: run init first")

// transitions is the only set of legal phase changes.
var transitions = map[state.Phase][]state.Phase{
	state.PhaseInit:     {state.PhaseResearch},
	state.PhaseResearch: {state.PhasePlan},
	state.PhasePlan:     {state.PhaseImpl},
	state.PhaseImpl:     {state.PhaseReview, state.PhasePlan},
	state.PhaseReview:   {state.PhaseImpl, state.PhasePlan},
}

// TransitionError reports a phase change that the transition table forbids.
type TransitionError struct {
	From    state.Phase
	To      state.Phase
	Allowed []state.Phase
}

func (e *TransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, p := range e.Allowed {
		allowed[i] = string(p)
	}
	return fmt.Sprintf("invalid transition: %s -> %s (allowed: %s)", e.From, e.To, strings.Join(allowed, ", "))
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to state.Phase) bool {
	return slices.Contains(transitions[from], to)
}

// ValidPhase reports whether p is one of the five workflow phases.
func ValidPhase(p state.Phase) bool {
	_, ok := transitions[p]
	return ok
}

// Engine manipulates the RPI state document.
type Engine struct {
	store *state.Store
}

// NewEngine creates an engine backed by store.
func NewEngine(store *state.Store) *Engine {
	return &Engine{store: store}
}

func (e *Engine) load() (*state.RPIState, error) {
	var s state.RPIState
	if !e.store.Read(state.DocRPI, &s) {
		return nil, ErrNoActiveState
	}
	return &s, nil
}

func (e *Engine) save(s *state.RPIState) error {
	if err := e.store.Write(state.DocRPI, s); err != nil {
		return fmt.Errorf("save rpi state: %w", err)
	}
	return nil
}

// mutate loads the state, applies fn and persists the result.
func (e *Engine) mutate(fn func(s *state.RPIState) error) (*state.RPIState, error) {
	s, err := e.load()
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := e.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Init returns the existing state, or creates a fresh one in the init phase.
func (e *Engine) Init(changeName string) (*state.RPIState, error) {
	if s, err := e.load(); err == nil {
		return s, nil
	}

	now := e.store.Now()
	s := &state.RPIState{
		Phase:         state.PhaseInit,
		Constraints:   []state.Constraint{},
		Decisions:     map[string]string{},
		PBTProperties: []state.PBTProperty{},
		Artifacts:     state.Artifacts{Specs: []string{}, Design: []string{}},
		History:       []state.Transition{},
		CreatedAt:     now,
	}
	if changeName != "" {
		s.ChangeName = &changeName
	}
	if err := e.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// State returns the current state, or nil when none exists.
func (e *Engine) State() *state.RPIState {
	s, err := e.load()
	if err != nil {
		return nil
	}
	return s
}

// CurrentPhase returns the current phase and whether a state exists.
func (e *Engine) CurrentPhase() (state.Phase, bool) {
	s, err := e.load()
	if err != nil {
		return "", false
	}
	return s.Phase, true
}

// Transition moves to target if the table allows it and appends a history
// record. On failure the persisted phase is unchanged.
func (e *Engine) Transition(target state.Phase, reason string) (*state.RPIState, error) {
	return e.mutate(func(s *state.RPIState) error {
		if !CanTransition(s.Phase, target) {
			return &TransitionError{From: s.Phase, To: target, Allowed: transitions[s.Phase]}
		}
		s.History = append(s.History, state.Transition{
			From:      s.Phase,
			To:        target,
			Timestamp: e.store.Now(),
			Reason:    reason,
		})
		s.Phase = target
		return nil
	})
}

// StartResearch names the change and enters research. Calling it again while
// already researching returns the state untouched.
func (e *Engine) StartResearch(changeName string) (*state.RPIState, error) {
	s, err := e.load()
	if err != nil {
		return nil, err
	}
	switch s.Phase {
	case state.PhaseResearch:
		return s, nil
	case state.PhaseInit:
		if changeName != "" {
			s.ChangeName = &changeName
		}
		if err := e.save(s); err != nil {
			return nil, err
		}
		return e.Transition(state.PhaseResearch, "Starting research: "+changeName)
	default:
		return nil, fmt.Errorf("cannot start research from phase %s", s.Phase)
	}
}

func (e *Engine) StartPlan() (*state.RPIState, error) {
	return e.Transition(state.PhasePlan, "Starting plan phase")
}

func (e *Engine) StartImpl() (*state.RPIState, error) {
	return e.Transition(state.PhaseImpl, "Starting implementation phase")
}

// StartReview enters review; only legal from impl.
func (e *Engine) StartReview() (*state.RPIState, error) {
	return e.Transition(state.PhaseReview, "Starting review phase")
}

// ConstraintInput is a constraint before an id is assigned.
type ConstraintInput struct {
	Type        state.ConstraintType `json:"type"`
	Description string               `json:"description"`
	Source      string               `json:"source"`
	Verified    bool                 `json:"verified"`
}

// AddConstraint appends a constraint with the next C%03d id.
func (e *Engine) AddConstraint(in ConstraintInput) (*state.Constraint, error) {
	if in.Type != state.ConstraintHard && in.Type != state.ConstraintSoft {
		return nil, fmt.Errorf("invalid constraint type %q: want hard or soft", in.Type)
	}
	if !validSource(in.Source) {
		return nil, fmt.Errorf("invalid constraint source %q", in.Source)
	}

	var added state.Constraint
	_, err := e.mutate(func(s *state.RPIState) error {
		ids := make([]string, len(s.Constraints))
		for i, c := range s.Constraints {
			ids[i] = c.ID
		}
		added = state.Constraint{
			ID:          nextID("C", ids),
			Type:        in.Type,
			Description: in.Description,
			Source:      in.Source,
			Verified:    in.Verified,
		}
		s.Constraints = append(s.Constraints, added)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// Constraints returns the constraints, optionally filtered by type. A missing
// state yields an empty list.
func (e *Engine) Constraints(filter state.ConstraintType) []state.Constraint {
	s := e.State()
	if s == nil {
		return []state.Constraint{}
	}
	if filter == "" {
		return s.Constraints
	}
	out := []state.Constraint{}
	for _, c := range s.Constraints {
		if c.Type == filter {
			out = append(out, c)
		}
	}
	return out
}

// VerifyConstraint marks a constraint verified. Unknown ids and a missing
// state are no-ops.
func (e *Engine) VerifyConstraint(id string) error {
	s, err := e.load()
	if err != nil {
		return nil
	}
	for i := range s.Constraints {
		if s.Constraints[i].ID == id {
			s.Constraints[i].Verified = true
			return e.save(s)
		}
	}
	return nil
}

// RecordDecision upserts a decision.
func (e *Engine) RecordDecision(key, value string) error {
	_, err := e.mutate(func(s *state.RPIState) error {
		if s.Decisions == nil {
			s.Decisions = map[string]string{}
		}
		s.Decisions[key] = value
		return nil
	})
	return err
}

func (e *Engine) Decisions() map[string]string {
	s := e.State()
	if s == nil || s.Decisions == nil {
		return map[string]string{}
	}
	return s.Decisions
}

// PBTInput is a property-based-test invariant before an id is assigned.
type PBTInput struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Invariant          string   `json:"invariant"`
	RelatedConstraints []string `json:"relatedConstraints"`
}

// AddPBTProperty appends a property with the next PBT%03d id.
func (e *Engine) AddPBTProperty(in PBTInput) (*state.PBTProperty, error) {
	var added state.PBTProperty
	_, err := e.mutate(func(s *state.RPIState) error {
		ids := make([]string, len(s.PBTProperties))
		for i, p := range s.PBTProperties {
			ids[i] = p.ID
		}
		related := in.RelatedConstraints
		if related == nil {
			related = []string{}
		}
		added = state.PBTProperty{
			ID:                 nextID("PBT", ids),
			Name:               in.Name,
			Description:        in.Description,
			Invariant:          in.Invariant,
			RelatedConstraints: related,
		}
		s.PBTProperties = append(s.PBTProperties, added)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

func (e *Engine) PBTProperties() []state.PBTProperty {
	s := e.State()
	if s == nil {
		return []state.PBTProperty{}
	}
	return s.PBTProperties
}

func (e *Engine) SetProposal(p string) error {
	_, err := e.mutate(func(s *state.RPIState) error {
		s.Artifacts.Proposal = &p
		return nil
	})
	return err
}

// AddSpec records a spec artifact path once.
func (e *Engine) AddSpec(p string) error {
	_, err := e.mutate(func(s *state.RPIState) error {
		if !slices.Contains(s.Artifacts.Specs, p) {
			s.Artifacts.Specs = append(s.Artifacts.Specs, p)
		}
		return nil
	})
	return err
}

// AddDesign records a design artifact path once.
func (e *Engine) AddDesign(p string) error {
	_, err := e.mutate(func(s *state.RPIState) error {
		if !slices.Contains(s.Artifacts.Design, p) {
			s.Artifacts.Design = append(s.Artifacts.Design, p)
		}
		return nil
	})
	return err
}

func (e *Engine) SetTasks(p string) error {
	_, err := e.mutate(func(s *state.RPIState) error {
		s.Artifacts.Tasks = &p
		return nil
	})
	return err
}

// Summary renders a short multi-line description of the current change.
func (e *Engine) Summary() string {
	s := e.State()
	if s == nil {
		return "No active RPI session."
	}

	hard, soft := 0, 0
	for _, c := range s.Constraints {
		if c.Type == state.ConstraintHard {
			hard++
		} else {
			soft++
		}
	}

	lines := []string{
		"Phase: " + strings.ToUpper(string(s.Phase)),
		"Change: " + deref(s.ChangeName, "(none)"),
		fmt.Sprintf("Constraints: %dH / %dS", hard, soft),
		fmt.Sprintf("Decisions: %d", len(s.Decisions)),
		fmt.Sprintf("PBT Properties: %d", len(s.PBTProperties)),
	}
	if s.Artifacts.Proposal != nil {
		lines = append(lines, "Proposal: "+*s.Artifacts.Proposal)
	}
	if s.Artifacts.Tasks != nil {
		lines = append(lines, "Tasks: "+*s.Artifacts.Tasks)
	}
	if len(s.Artifacts.Specs) > 0 {
		lines = append(lines, fmt.Sprintf("Specs: %d files", len(s.Artifacts.Specs)))
	}
	return strings.Join(lines, "\n")
}

// Reset deletes the state document.
func (e *Engine) Reset() error {
	return e.store.Delete(state.DocRPI)
}

func validSource(src string) bool {
	switch src {
	case "user", "codex", "gemini", "claude":
		return true
	}
	return false
}

// nextID returns prefix followed by one more than the highest numeric suffix
// in ids, zero-padded to three digits. Ids are never reused.
func nextID(prefix string, ids []string) string {
	highest := 0
	for _, id := range ids {
		n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
		if err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1)
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
