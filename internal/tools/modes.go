package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/CodexForgeBR/ccg/internal/ai"
	"github.com/CodexForgeBR/ccg/internal/jobs"
	"github.com/CodexForgeBR/ccg/internal/model"
	"github.com/CodexForgeBR/ccg/internal/modes"
	"github.com/CodexForgeBR/ccg/internal/parser"
	"github.com/CodexForgeBR/ccg/internal/rpi"
	"github.com/CodexForgeBR/ccg/internal/state"
)

func (h *Handler) registerModeTools() {
	reset := boolean("reset", "Delete the document instead of deactivating it")

	h.registerState(tool("ralph_start",
		"Start a Ralph execute→verify→fix loop, optionally linked to a team",
		workDir(),
		num("max_iterations", "Iteration limit (default from config, normally 10)"),
		str("team_name", "Link the loop to this team"),
		num("total_tasks", "Task count of the linked team"),
	), bind(h.ralphStart))
	h.registerState(tool("ralph_next_iteration", "Count one more Ralph iteration", workDir()),
		bind(h.ralphNext))
	h.registerState(tool("ralph_record_verification",
		"Record a verification result. Pass the flags directly or job_id of a completed verifier job whose answer contains a {\"passed\": ...} object.",
		workDir(),
		boolean("passed", "Overall result"),
		boolean("tests", "Tests passed (default: passed)"),
		boolean("build", "Build passed (default: passed)"),
		boolean("lsp", "No diagnostics (default: passed)"),
		strs("issues", "Open issues"),
		str("job_id", "Read the verdict from this job's result"),
	), bind(h.ralphVerify))
	h.registerState(tool("ralph_should_continue", "Decide whether the Ralph loop should run another iteration", workDir()),
		bind(h.ralphShouldContinue))
	h.registerState(tool("ralph_status", "Ralph loop state and summary", workDir()),
		bind(h.ralphStatus))
	h.registerState(tool("ralph_cancel", "Stop the Ralph loop", workDir(), reset),
		bind(h.ralphCancel))

	h.registerState(tool("team_create",
		"Create a team with a task DAG. Tasks default to pending and the general domain.",
		workDir(),
		str("team_name", "Team name", required()),
		objects("tasks", "Tasks: {id, title, description, domain, dependencies}", required()),
	), bind(h.teamCreate))
	h.registerState(tool("team_ready", "Ready tasks with their routing", workDir()),
		bind(h.teamReady))
	h.registerState(tool("team_dispatch",
		"Start a background job for every ready task routed to one of the given providers and mark it in progress",
		workDir(),
		strs("providers", "Providers to dispatch to (default: codex, gemini)"),
		str("working_directory", "Working directory for CLI execution"),
	), bind(h.teamDispatch))
	h.registerState(tool("team_update_task",
		"Set a task's status and assignee",
		workDir(),
		str("task_id", "Task id", required()),
		enum("status", "New status", []string{"pending", "in_progress", "completed", "failed"}, required()),
		str("assignee", "Worker now owning the task"),
	), bind(h.teamUpdate))
	h.registerState(tool("team_progress", "Task counts per status and completion", workDir()),
		bind(h.teamProgress))
	h.registerState(tool("team_cleanup", "Delete the team document", workDir()),
		bind(h.teamCleanup))

	h.registerState(tool("autopilot_start",
		"Start autopilot over the RPI phases. composite=true links Ralph and/or Team for implementation.",
		workDir(),
		str("requirement", "What to build; used as the change name"),
		boolean("composite", "Start in composite mode"),
		boolean("linked_ralph", "composite: wrap implementation in a Ralph loop"),
		boolean("linked_team", "composite: run implementation as a team"),
	), bind(h.autopilotStart))
	h.registerState(tool("autopilot_advance", "Advance the RPI change to the next phase and return its instructions", workDir()),
		bind(h.autopilotAdvance))
	h.registerState(tool("autopilot_instructions",
		"Instructions for a phase (default: the current one)",
		workDir(),
		enum("phase", "Phase", phases),
	), bind(h.autopilotInstructions))
	h.registerState(tool("autopilot_set_action",
		"Record what a composite run is doing right now",
		workDir(),
		str("action", "Current action", required()),
	), bind(h.autopilotSetAction))
	h.registerState(tool("autopilot_record_phase",
		"Mark a phase completed on a composite run",
		workDir(),
		enum("phase", "Phase", phases, required()),
	), bind(h.autopilotRecordPhase))
	h.registerState(tool("autopilot_check_context",
		"Report context window usage; suggests clearing once the threshold is reached",
		workDir(),
		num("percent", "Context usage in percent", required()),
		num("threshold", "Threshold in percent (default: 80)"),
	), bind(h.autopilotCheckContext))
	h.registerState(tool("autopilot_status", "Autopilot state and summary", workDir()),
		bind(h.autopilotStatus))
	h.registerState(tool("autopilot_cancel", "Stop autopilot", workDir(), reset),
		bind(h.autopilotCancel))
}

// Status pairs a mode document with its rendered summary.
type Status struct {
	Summary string `json:"summary" yaml:"summary"`
	State   any    `json:"state" yaml:"state"`
}

type cancelArgs struct {
	dirArg
	Reset bool `json:"reset"`
}

// Ralph

type ralphStartArgs struct {
	dirArg
	MaxIterations int    `json:"max_iterations"`
	TeamName      string `json:"team_name"`
	TotalTasks    int    `json:"total_tasks"`
}

func (h *Handler) ralph(d dirArg) (*modes.Ralph, error) {
	store, err := h.store(d)
	if err != nil {
		return nil, err
	}
	return modes.NewRalph(store), nil
}

func (h *Handler) ralphStart(_ context.Context, a ralphStartArgs) (any, error) {
	r, err := h.ralph(a.dirArg)
	if err != nil {
		return nil, err
	}
	limit := a.MaxIterations
	if limit <= 0 {
		limit = h.cfg.RalphMaxIterations
	}
	if a.TeamName != "" {
		return r.StartLinked(a.TeamName, limit, a.TotalTasks)
	}
	return r.Start(limit)
}

func (h *Handler) ralphNext(_ context.Context, a dirArg) (any, error) {
	r, err := h.ralph(a)
	if err != nil {
		return nil, err
	}
	return r.NextIteration()
}

type verifyArgs struct {
	dirArg
	Passed *bool    `json:"passed"`
	Tests  *bool    `json:"tests"`
	Build  *bool    `json:"build"`
	LSP    *bool    `json:"lsp"`
	Issues []string `json:"issues"`
	JobID  string   `json:"job_id"`
}

func orDefault(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}

func (h *Handler) verdictFromJob(id string) (state.Verification, error) {
	job, err := h.cfg.Jobs.Get(id)
	if err != nil {
		return state.Verification{}, err
	}
	if job.Status != jobs.StatusCompleted {
		return state.Verification{}, fmt.Errorf("job %s is %s, not completed", id, job.Status)
	}
	v, err := parser.ParseVerdict(job.Result)
	if err != nil {
		return state.Verification{}, fmt.Errorf("job %s: %w", id, err)
	}
	return state.Verification{Passed: v.Passed, Tests: v.Tests, Build: v.Build, LSP: v.LSP, Issues: v.Issues}, nil
}

func (h *Handler) ralphVerify(_ context.Context, a verifyArgs) (any, error) {
	var v state.Verification
	switch {
	case a.JobID != "":
		var err error
		if v, err = h.verdictFromJob(a.JobID); err != nil {
			return nil, err
		}
	case a.Passed != nil:
		v = state.Verification{
			Passed: *a.Passed,
			Tests:  orDefault(a.Tests, *a.Passed),
			Build:  orDefault(a.Build, *a.Passed),
			LSP:    orDefault(a.LSP, *a.Passed),
			Issues: a.Issues,
		}
	default:
		return nil, fmt.Errorf("passed or job_id is required")
	}

	r, err := h.ralph(a.dirArg)
	if err != nil {
		return nil, err
	}
	return r.RecordVerification(v)
}

func (h *Handler) ralphShouldContinue(_ context.Context, a dirArg) (any, error) {
	r, err := h.ralph(a)
	if err != nil {
		return nil, err
	}
	return r.ShouldContinue()
}

func (h *Handler) ralphStatus(_ context.Context, a dirArg) (any, error) {
	r, err := h.ralph(a)
	if err != nil {
		return nil, err
	}
	return Status{Summary: r.Summary(), State: r.State()}, nil
}

func (h *Handler) ralphCancel(_ context.Context, a cancelArgs) (any, error) {
	r, err := h.ralph(a.dirArg)
	if err != nil {
		return nil, err
	}
	if a.Reset {
		err = r.Reset()
	} else {
		err = r.Cancel()
	}
	if err != nil {
		return nil, err
	}
	return Success{Success: true}, nil
}

// Team

func (h *Handler) team(d dirArg) (*modes.Team, error) {
	store, err := h.store(d)
	if err != nil {
		return nil, err
	}
	return modes.NewTeam(store, h.cfg.Router), nil
}

type teamCreateArgs struct {
	dirArg
	TeamName string           `json:"team_name"`
	Tasks    []state.TeamTask `json:"tasks"`
}

func (h *Handler) teamCreate(_ context.Context, a teamCreateArgs) (any, error) {
	if a.TeamName == "" {
		return nil, fmt.Errorf("team_name is required")
	}
	t, err := h.team(a.dirArg)
	if err != nil {
		return nil, err
	}
	return t.Create(a.TeamName, a.Tasks)
}

// Assignments lists routed ready tasks.
type Assignments struct {
	Tasks []modes.Assignment `json:"tasks" yaml:"tasks"`
}

func (h *Handler) teamReady(_ context.Context, a dirArg) (any, error) {
	t, err := h.team(a)
	if err != nil {
		return nil, err
	}
	as, err := t.RouteWorkers()
	if err != nil {
		return nil, err
	}
	return Assignments{Tasks: as}, nil
}

type dispatchArgs struct {
	dirArg
	Providers        []string `json:"providers"`
	WorkingDirectory string   `json:"working_directory"`
}

// DispatchedTask links a team task to the job running it.
type DispatchedTask struct {
	TaskID   string `json:"task_id" yaml:"task_id"`
	JobID    string `json:"job_id" yaml:"job_id"`
	Provider string `json:"provider" yaml:"provider"`
	Role     string `json:"role" yaml:"role"`
}

// Dispatch is the result of team_dispatch. Remaining holds the ready tasks
// that were routed elsewhere and are left to the caller.
type Dispatch struct {
	Dispatched []DispatchedTask   `json:"dispatched" yaml:"dispatched"`
	Remaining  []modes.Assignment `json:"remaining" yaml:"remaining"`
}

func taskPrompt(t state.TeamTask) string {
	parts := []string{fmt.Sprintf("Task %s: %s", t.ID, t.Title)}
	if t.Description != "" {
		parts = append(parts, t.Description)
	}
	return strings.Join(parts, "\n\n")
}

func (h *Handler) teamDispatch(_ context.Context, a dispatchArgs) (any, error) {
	providers := a.Providers
	if len(providers) == 0 {
		providers = []string{model.Codex, model.Gemini}
	}
	workDir := a.WorkingDirectory
	if workDir == "" {
		workDir = h.cfg.WorkDir
	}

	t, err := h.team(a.dirArg)
	if err != nil {
		return nil, err
	}
	assignments, err := t.RouteWorkers()
	if err != nil {
		return nil, err
	}

	out := Dispatch{Dispatched: []DispatchedTask{}, Remaining: []modes.Assignment{}}
	for _, as := range assignments {
		_, enabled := h.cfg.Executors[as.Route.Provider]
		if !enabled || !slices.Contains(providers, as.Route.Provider) {
			out.Remaining = append(out.Remaining, as)
			continue
		}
		job, err := h.cfg.Jobs.Dispatch(as.Route.Provider, ai.Request{
			Prompt:  taskPrompt(as.Task),
			Role:    as.Route.Role,
			WorkDir: workDir,
		})
		if err != nil {
			return nil, fmt.Errorf("dispatch task %s: %w", as.Task.ID, err)
		}
		if _, err := t.UpdateTask(as.Task.ID, state.TaskInProgress, "job:"+job.ID); err != nil {
			return nil, err
		}
		out.Dispatched = append(out.Dispatched, DispatchedTask{
			TaskID:   as.Task.ID,
			JobID:    job.ID,
			Provider: as.Route.Provider,
			Role:     as.Route.Role,
		})
	}
	return out, nil
}

type updateTaskArgs struct {
	dirArg
	TaskID   string           `json:"task_id"`
	Status   state.TaskStatus `json:"status"`
	Assignee string           `json:"assignee"`
}

func (h *Handler) teamUpdate(_ context.Context, a updateTaskArgs) (any, error) {
	t, err := h.team(a.dirArg)
	if err != nil {
		return nil, err
	}
	return t.UpdateTask(a.TaskID, a.Status, a.Assignee)
}

// TeamProgress is the result of team_progress.
type TeamProgress struct {
	modes.Progress `yaml:",inline"`
	Complete       bool `json:"complete" yaml:"complete"`
	HasFailures    bool `json:"has_failures" yaml:"has_failures"`
}

func (h *Handler) teamProgress(_ context.Context, a dirArg) (any, error) {
	t, err := h.team(a)
	if err != nil {
		return nil, err
	}
	if t.State() == nil {
		return nil, fmt.Errorf("no team state found")
	}
	return TeamProgress{Progress: t.Progress(), Complete: t.IsComplete(), HasFailures: t.HasFailures()}, nil
}

func (h *Handler) teamCleanup(_ context.Context, a dirArg) (any, error) {
	t, err := h.team(a)
	if err != nil {
		return nil, err
	}
	if err := t.Cleanup(); err != nil {
		return nil, err
	}
	return Success{Success: true}, nil
}

// Autopilot

func (h *Handler) autopilot(d dirArg) (*modes.Autopilot, error) {
	store, err := h.store(d)
	if err != nil {
		return nil, err
	}
	return modes.NewAutopilot(store, rpi.NewEngine(store)), nil
}

type autopilotStartArgs struct {
	dirArg
	Requirement string `json:"requirement"`
	Composite   bool   `json:"composite"`
	LinkedRalph bool   `json:"linked_ralph"`
	LinkedTeam  bool   `json:"linked_team"`
}

func (h *Handler) autopilotStart(_ context.Context, a autopilotStartArgs) (any, error) {
	ap, err := h.autopilot(a.dirArg)
	if err != nil {
		return nil, err
	}
	if a.Composite || a.LinkedRalph || a.LinkedTeam {
		return ap.StartComposite(a.Requirement, a.LinkedRalph, a.LinkedTeam)
	}
	return ap.Start(a.Requirement)
}

// AdvanceResult is the result of autopilot_advance.
type AdvanceResult struct {
	modes.Advance    `yaml:",inline"`
	Instructions     string `json:"instructions" yaml:"instructions"`
	ShouldStartRalph bool   `json:"shouldStartRalph,omitempty" yaml:"shouldStartRalph,omitempty"`
	ShouldStartTeam  bool   `json:"shouldStartTeam,omitempty" yaml:"shouldStartTeam,omitempty"`
	Finished         bool   `json:"finished,omitempty" yaml:"finished,omitempty"`
}

func (h *Handler) autopilotAdvance(_ context.Context, a dirArg) (any, error) {
	ap, err := h.autopilot(a)
	if err != nil {
		return nil, err
	}
	adv, err := ap.AdvancePhase()
	if err != nil {
		return nil, err
	}
	res := AdvanceResult{Advance: adv, Instructions: ap.PhaseInstructions(adv.NextPhase)}
	if s := ap.State(); s != nil && !s.Active {
		res.Finished = true
		res.Instructions = "All phases complete. Autopilot is no longer active."
	}
	if adv.NextPhase == state.PhaseImpl {
		res.ShouldStartRalph = ap.ShouldStartRalph()
		res.ShouldStartTeam = ap.ShouldStartTeam()
	}
	return res, nil
}

type phaseArgs struct {
	dirArg
	Phase state.Phase `json:"phase"`
}

// Instructions is the result of autopilot_instructions.
type Instructions struct {
	Phase        state.Phase `json:"phase" yaml:"phase"`
	Instructions string      `json:"instructions" yaml:"instructions"`
}

func (h *Handler) autopilotInstructions(_ context.Context, a phaseArgs) (any, error) {
	ap, err := h.autopilot(a.dirArg)
	if err != nil {
		return nil, err
	}
	phase := a.Phase
	if phase == "" {
		s := ap.State()
		if s == nil {
			return nil, fmt.Errorf("autopilot: %w", modes.ErrNotStarted)
		}
		phase = s.RPIPhase
	}
	if !rpi.ValidPhase(phase) {
		return nil, fmt.Errorf("invalid phase %q", phase)
	}
	return Instructions{Phase: phase, Instructions: ap.PhaseInstructions(phase)}, nil
}

type actionArgs struct {
	dirArg
	Action string `json:"action"`
}

func (h *Handler) autopilotSetAction(_ context.Context, a actionArgs) (any, error) {
	ap, err := h.autopilot(a.dirArg)
	if err != nil {
		return nil, err
	}
	if err := ap.SetCurrentAction(a.Action); err != nil {
		return nil, err
	}
	return success(ap.State()), nil
}

func (h *Handler) autopilotRecordPhase(_ context.Context, a phaseArgs) (any, error) {
	if !rpi.ValidPhase(a.Phase) {
		return nil, fmt.Errorf("invalid phase %q", a.Phase)
	}
	ap, err := h.autopilot(a.dirArg)
	if err != nil {
		return nil, err
	}
	if err := ap.RecordPhaseCompletion(a.Phase); err != nil {
		return nil, err
	}
	return success(ap.State()), nil
}

type contextArgs struct {
	dirArg
	Percent   int `json:"percent"`
	Threshold int `json:"threshold"`
}

func (h *Handler) autopilotCheckContext(_ context.Context, a contextArgs) (any, error) {
	ap, err := h.autopilot(a.dirArg)
	if err != nil {
		return nil, err
	}
	threshold := a.Threshold
	if threshold <= 0 {
		threshold = h.cfg.ContextThreshold
	}
	return ap.CheckContextUsage(a.Percent, threshold)
}

func (h *Handler) autopilotStatus(_ context.Context, a dirArg) (any, error) {
	ap, err := h.autopilot(a)
	if err != nil {
		return nil, err
	}
	return Status{Summary: ap.Summary(), State: ap.State()}, nil
}

func (h *Handler) autopilotCancel(_ context.Context, a cancelArgs) (any, error) {
	ap, err := h.autopilot(a.dirArg)
	if err != nil {
		return nil, err
	}
	if a.Reset {
		err = ap.Reset()
	} else {
		err = ap.Cancel()
	}
	if err != nil {
		return nil, err
	}
	return Success{Success: true}, nil
}
