package state

// Document names under the state directory.
const (
	DocRPI       = "rpi-state"
	DocRalph     = "ralph-state"
	DocTeam      = "team-state"
	DocAutopilot = "autopilot-state"
)

// ModeDoc returns the document name for an orchestration mode.
func ModeDoc(mode string) string {
	return mode + "-state"
}

// Phase is an RPI workflow phase.
type Phase string

// RPI phases in workflow order.
const (
	PhaseInit     Phase = "init"
	PhaseResearch Phase = "research"
	PhasePlan     Phase = "plan"
	PhaseImpl     Phase = "impl"
	PhaseReview   Phase = "review"
)

// PhaseOrder is the fixed forward order walked by autopilot.
var PhaseOrder = []Phase{PhaseInit, PhaseResearch, PhasePlan, PhaseImpl, PhaseReview}

// RPIState is the persisted state of one change moving through the RPI phases.
// Written to .oh-my-ccg/state/rpi-state.json.
type RPIState struct {
	Phase         Phase             `json:"phase"`
	ChangeID      *string           `json:"changeId"`
	ChangeName    *string           `json:"changeName"`
	Constraints   []Constraint      `json:"constraints"`
	Decisions     map[string]string `json:"decisions"`
	PBTProperties []PBTProperty     `json:"pbtProperties"`
	Artifacts     Artifacts         `json:"artifacts"`
	History       []Transition      `json:"history"`
	CreatedAt     string            `json:"createdAt"`
	UpdatedAt     string            `json:"updatedAt"`
}

func (s *RPIState) SetUpdatedAt(ts string) { s.UpdatedAt = ts }

type ConstraintType string

const (
	ConstraintHard ConstraintType = "hard"
	ConstraintSoft ConstraintType = "soft"
)

type Constraint struct {
	ID          string         `json:"id"`
	Type        ConstraintType `json:"type"`
	Description string         `json:"description"`
	Source      string         `json:"source"`
	Verified    bool           `json:"verified"`
}

type PBTProperty struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Invariant          string   `json:"invariant"`
	RelatedConstraints []string `json:"relatedConstraints"`
}

type Artifacts struct {
	Proposal *string  `json:"proposal"`
	Specs    []string `json:"specs"`
	Design   []string `json:"design"`
	Tasks    *string  `json:"tasks"`
}

type Transition struct {
	From      Phase  `json:"from"`
	To        Phase  `json:"to"`
	Timestamp string `json:"timestamp"`
	Reason    string `json:"reason"`
}

// Variant discriminates plain mode documents from composite ones. It is
// written when the document is created and never inferred from other fields.
type Variant string

const (
	VariantPlain     Variant = "plain"
	VariantComposite Variant = "composite"
)

// Orchestration mode names.
const (
	ModeRalph     = "ralph"
	ModeTeam      = "team"
	ModeAutopilot = "autopilot"
)

// RalphState is the Ralph loop document. A composite (team-linked) loop
// carries LinkedTeam.
type RalphState struct {
	Mode             string        `json:"mode"`
	Variant          Variant       `json:"variant"`
	Active           bool          `json:"active"`
	Iteration        int           `json:"iteration"`
	MaxIterations    int           `json:"maxIterations"`
	LastVerification *Verification `json:"lastVerification"`
	LinkedTeam       *LinkedTeam   `json:"linkedTeam,omitempty"`
	StartedAt        string        `json:"startedAt"`
	UpdatedAt        string        `json:"updatedAt"`
}

func (s *RalphState) SetUpdatedAt(ts string) { s.UpdatedAt = ts }

type Verification struct {
	Passed    bool     `json:"passed"`
	Tests     bool     `json:"tests"`
	Build     bool     `json:"build"`
	LSP       bool     `json:"lsp"`
	Issues    []string `json:"issues"`
	Timestamp string   `json:"timestamp"`
}

// LinkedTeam is a read-only snapshot of team progress kept on a Ralph loop.
type LinkedTeam struct {
	Enabled        bool    `json:"enabled"`
	TeamName       *string `json:"teamName"`
	Workers        int     `json:"workers"`
	CompletedTasks int     `json:"completedTasks"`
	TotalTasks     int     `json:"totalTasks"`
}

// TaskStatus is the lifecycle status of one team task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Task domains used for routing.
const (
	DomainFrontend  = "frontend"
	DomainBackend   = "backend"
	DomainFullstack = "fullstack"
	DomainGeneral   = "general"
)

// ValidDomain reports whether d is one of the routing domains.
func ValidDomain(d string) bool {
	switch d {
	case DomainFrontend, DomainBackend, DomainFullstack, DomainGeneral:
		return true
	}
	return false
}

// TeamTask is one node of the team task DAG.
type TeamTask struct {
	ID           string     `json:"id" yaml:"id"`
	Title        string     `json:"title" yaml:"title"`
	Description  string     `json:"description" yaml:"description"`
	Domain       string     `json:"domain" yaml:"domain"`
	Dependencies []string   `json:"dependencies" yaml:"dependencies"`
	Status       TaskStatus `json:"status" yaml:"status"`
	Assignee     string     `json:"assignee,omitempty" yaml:"assignee,omitempty"`
}

// TeamState is the Team document, including the full task list so a
// restarted process can resume the DAG.
type TeamState struct {
	Mode           string     `json:"mode"`
	Variant        Variant    `json:"variant"`
	Active         bool       `json:"active"`
	TeamName       string     `json:"teamName"`
	Workers        int        `json:"workers"`
	CompletedTasks int        `json:"completedTasks"`
	TotalTasks     int        `json:"totalTasks"`
	Tasks          []TeamTask `json:"tasks"`
	StartedAt      string     `json:"startedAt"`
	UpdatedAt      string     `json:"updatedAt"`
}

func (s *TeamState) SetUpdatedAt(ts string) { s.UpdatedAt = ts }

// AutopilotState is the Autopilot document. The composite fields are only
// meaningful when Variant is VariantComposite.
type AutopilotState struct {
	Mode            string  `json:"mode"`
	Variant         Variant `json:"variant"`
	Active          bool    `json:"active"`
	RPIPhase        Phase   `json:"rpiPhase"`
	AutoTransition  bool    `json:"autoTransition"`
	LinkedRalph     bool    `json:"linkedRalph,omitempty"`
	LinkedTeam      bool    `json:"linkedTeam,omitempty"`
	ContextPercent  int     `json:"contextPercent,omitempty"`
	PhasesCompleted []Phase `json:"phasesCompleted,omitempty"`
	CurrentAction   *string `json:"currentAction,omitempty"`
	StartedAt       string  `json:"startedAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func (s *AutopilotState) SetUpdatedAt(ts string) { s.UpdatedAt = ts }

// Composite reports whether the document was created in composite mode.
func (s *AutopilotState) Composite() bool {
	return s.Variant == VariantComposite
}

// ActiveModes returns the names of the active orchestration modes. Composite
// documents are reported as "autopilot-composite" and "ralph-team".
func (s *Store) ActiveModes() []string {
	var active []string

	var ralph RalphState
	if s.Read(DocRalph, &ralph) && ralph.Active {
		if ralph.Variant == VariantComposite {
			active = append(active, "ralph-team")
		} else {
			active = append(active, ModeRalph)
		}
	}

	var team TeamState
	if s.Read(DocTeam, &team) && team.Active {
		active = append(active, ModeTeam)
	}

	var auto AutopilotState
	if s.Read(DocAutopilot, &auto) && auto.Active {
		if auto.Composite() {
			active = append(active, "autopilot-composite")
		} else {
			active = append(active, ModeAutopilot)
		}
	}
	return active
}

// AnyModeActive reports whether any orchestration mode is active.
func (s *Store) AnyModeActive() bool {
	return len(s.ActiveModes()) > 0
}
