package modes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/CodexForgeBR/ccg/internal/rpi"
	"github.com/CodexForgeBR/ccg/internal/state"
)

// DefaultContextThreshold is the context usage percentage at which autopilot
// suggests clearing the conversation.
const DefaultContextThreshold = 80

// Autopilot walks a change through the RPI phases, optionally delegating
// implementation to a linked Ralph loop or Team.
type Autopilot struct {
	store *state.Store
	rpi   *rpi.Engine
}

func NewAutopilot(store *state.Store, engine *rpi.Engine) *Autopilot {
	if engine == nil {
		engine = rpi.NewEngine(store)
	}
	return &Autopilot{store: store, rpi: engine}
}

// State returns the autopilot document, or nil when none exists.
func (a *Autopilot) State() *state.AutopilotState {
	var s state.AutopilotState
	if !a.store.Read(state.DocAutopilot, &s) {
		return nil
	}
	return &s
}

func (a *Autopilot) save(s *state.AutopilotState) error {
	if err := a.store.Write(state.DocAutopilot, s); err != nil {
		return fmt.Errorf("save autopilot state: %w", err)
	}
	return nil
}

// Start initialises the RPI change if needed and begins a plain run.
func (a *Autopilot) Start(requirement string) (*state.AutopilotState, error) {
	return a.start(requirement, &state.AutopilotState{Variant: state.VariantPlain})
}

// StartComposite begins a run that hands implementation to a Ralph loop, a
// Team, or both.
func (a *Autopilot) StartComposite(requirement string, linkedRalph, linkedTeam bool) (*state.AutopilotState, error) {
	return a.start(requirement, &state.AutopilotState{
		Variant:         state.VariantComposite,
		LinkedRalph:     linkedRalph,
		LinkedTeam:      linkedTeam,
		PhasesCompleted: []state.Phase{},
	})
}

func (a *Autopilot) start(requirement string, s *state.AutopilotState) (*state.AutopilotState, error) {
	r, err := a.rpi.Init(requirement)
	if err != nil {
		return nil, err
	}
	s.Mode = state.ModeAutopilot
	s.Active = true
	s.AutoTransition = true
	s.RPIPhase = r.Phase
	s.StartedAt = a.store.Now()
	if err := a.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Advance is the outcome of AdvancePhase.
type Advance struct {
	NextPhase      state.Phase `json:"nextPhase" yaml:"nextPhase"`
	AutoTransition bool        `json:"autoTransition" yaml:"autoTransition"`
}

// AdvancePhase moves the RPI change to the phase after its current one.
// Advancing past review ends the run.
func (a *Autopilot) AdvancePhase() (Advance, error) {
	s := a.State()
	if s == nil {
		return Advance{}, fmt.Errorf("autopilot: %w", ErrNotStarted)
	}
	if !s.Active {
		return Advance{}, fmt.Errorf("autopilot: %w", ErrNotActive)
	}

	current, ok := a.rpi.CurrentPhase()
	if !ok {
		r, err := a.rpi.Init("")
		if err != nil {
			return Advance{}, err
		}
		current = r.Phase
	}

	i := slices.Index(state.PhaseOrder, current)
	if i < 0 || i+1 >= len(state.PhaseOrder) {
		s.Active = false
		return Advance{NextPhase: state.PhaseReview}, a.save(s)
	}
	next := state.PhaseOrder[i+1]

	if _, err := a.rpi.Transition(next, fmt.Sprintf("Autopilot advancing to %s", next)); err != nil {
		return Advance{}, err
	}

	if s.Composite() {
		if !slices.Contains(s.PhasesCompleted, current) {
			s.PhasesCompleted = append(s.PhasesCompleted, current)
		}
		s.CurrentAction = nil
	}
	s.RPIPhase = next
	if err := a.save(s); err != nil {
		return Advance{}, err
	}
	return Advance{NextPhase: next, AutoTransition: s.AutoTransition}, nil
}

// PhaseInstructions describes what should happen during phase, taking the
// composite links into account for implementation.
func (a *Autopilot) PhaseInstructions(phase state.Phase) string {
	var linkedRalph, linkedTeam bool
	if s := a.State(); s != nil && s.Composite() {
		linkedRalph, linkedTeam = s.LinkedRalph, s.LinkedTeam
	}

	switch phase {
	case state.PhaseInit:
		return "Initialize RPI state and gather requirements. Run /oh-my-ccg:init to set up the change."
	case state.PhaseResearch:
		return "Run CCG research phase: launch Codex and Gemini in parallel to explore constraints. Use /ccg:spec-research."
	case state.PhasePlan:
		return "Run CCG planning phase: eliminate ambiguities, extract PBT properties. Use /ccg:spec-plan."
	case state.PhaseImpl:
		switch {
		case linkedTeam && linkedRalph:
			return "Spawn Team workers for parallel implementation tasks, then wrap in Ralph execute→verify→fix loop until all tasks verified."
		case linkedTeam:
			return "Spawn Team workers for parallel implementation tasks. Monitor progress and complete all tasks."
		case linkedRalph:
			return "Wrap implementation in Ralph execute→verify→fix loop: implement, verify (tests+build+LSP), fix issues, repeat until passing."
		}
		return "Run CCG implementation phase: route tasks to appropriate model, rewrite prototypes to production code. Use /ccg:spec-impl."
	case state.PhaseReview:
		return "Run CCG review phase: dual-model cross-validation with Codex and Gemini in parallel. Use /ccg:spec-review."
	}
	return ""
}

func (a *Autopilot) ShouldStartRalph() bool {
	s := a.State()
	return s != nil && s.Composite() && s.LinkedRalph
}

func (a *Autopilot) ShouldStartTeam() bool {
	s := a.State()
	return s != nil && s.Composite() && s.LinkedTeam
}

// RecordPhaseCompletion marks phase done on a composite run and clears the
// current action. Plain runs ignore it.
func (a *Autopilot) RecordPhaseCompletion(phase state.Phase) error {
	s := a.State()
	if s == nil || !s.Composite() {
		return nil
	}
	if !slices.Contains(s.PhasesCompleted, phase) {
		s.PhasesCompleted = append(s.PhasesCompleted, phase)
	}
	s.CurrentAction = nil
	return a.save(s)
}

// SetCurrentAction records what a composite run is doing right now.
func (a *Autopilot) SetCurrentAction(action string) error {
	s := a.State()
	if s == nil || !s.Composite() {
		return nil
	}
	s.CurrentAction = &action
	return a.save(s)
}

// ContextCheck is the outcome of CheckContextUsage.
type ContextCheck struct {
	ShouldClear bool   `json:"shouldClear" yaml:"shouldClear"`
	Message     string `json:"message" yaml:"message"`
}

// CheckContextUsage records percent on a composite run and suggests clearing
// the conversation once it reaches threshold. A threshold <= 0 uses
// DefaultContextThreshold.
func (a *Autopilot) CheckContextUsage(percent, threshold int) (ContextCheck, error) {
	if threshold <= 0 {
		threshold = DefaultContextThreshold
	}
	if s := a.State(); s != nil && s.Composite() {
		s.ContextPercent = percent
		if err := a.save(s); err != nil {
			return ContextCheck{}, err
		}
	}
	if percent < threshold {
		return ContextCheck{}, nil
	}
	return ContextCheck{
		ShouldClear: true,
		Message: fmt.Sprintf("Context usage at %d%% (threshold: %d%%). Suggest /clear to continue. State is persisted in %s/.",
			percent, threshold, a.store.Dir()),
	}, nil
}

func onOff(b bool, on, off string) string {
	if b {
		return on
	}
	return off
}

// Summary renders the run for status output.
func (a *Autopilot) Summary() string {
	s := a.State()
	if s == nil {
		return "Autopilot not active."
	}

	lines := []string{
		"Autopilot: " + onOff(s.Active, "ACTIVE", "INACTIVE"),
		"RPI Phase: " + strings.ToUpper(string(s.RPIPhase)),
		"Auto-transition: " + onOff(s.AutoTransition, "ON", "OFF"),
	}
	if s.Composite() {
		done := make([]string, len(s.PhasesCompleted))
		for i, p := range s.PhasesCompleted {
			done[i] = string(p)
		}
		lines = append(lines,
			"Composite Mode: ON",
			"  Linked Ralph: "+onOff(s.LinkedRalph, "YES", "NO"),
			"  Linked Team:  "+onOff(s.LinkedTeam, "YES", "NO"),
			"  Phases done: ["+strings.Join(done, ", ")+"]",
		)
		if s.CurrentAction != nil {
			lines = append(lines, "  Current: "+*s.CurrentAction)
		}
		if s.ContextPercent > 0 {
			lines = append(lines, fmt.Sprintf("  Context: %d%%", s.ContextPercent))
		}
	}
	if r := a.rpi.State(); r != nil {
		change := "(none)"
		if r.ChangeName != nil {
			change = *r.ChangeName
		}
		lines = append(lines,
			"Change: "+change,
			fmt.Sprintf("Constraints: %d", len(r.Constraints)),
		)
	}
	return strings.Join(lines, "\n")
}

// Cancel deactivates the run. A missing run is left alone.
func (a *Autopilot) Cancel() error {
	s := a.State()
	if s == nil {
		return nil
	}
	s.Active = false
	return a.save(s)
}

// Reset removes the autopilot document. The RPI change is kept.
func (a *Autopilot) Reset() error {
	return a.store.Delete(state.DocAutopilot)
}
