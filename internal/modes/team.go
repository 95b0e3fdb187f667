package modes

import (
	"errors"
	"fmt"
	"slices"

	"github.com/CodexForgeBR/ccg/internal/router"
	"github.com/CodexForgeBR/ccg/internal/state"
)

// Team runs a set of tasks with dependencies across routed workers. The task
// list lives in the team document, so every call works on the persisted DAG.
// Dependency cycles are not detected; tasks in a cycle simply never become
// ready.
type Team struct {
	store  *state.Store
	router *router.Router
	ralph  *Ralph
}

// NewTeam returns a team orchestrator. A nil router routes with every
// provider enabled.
func NewTeam(store *state.Store, r *router.Router) *Team {
	if r == nil {
		r = router.New()
	}
	return &Team{store: store, router: r, ralph: NewRalph(store)}
}

// State restores the team document, or returns nil when none exists.
func (t *Team) State() *state.TeamState {
	var s state.TeamState
	if !t.store.Read(state.DocTeam, &s) {
		return nil
	}
	return &s
}

func (t *Team) load() (*state.TeamState, error) {
	s := t.State()
	if s == nil {
		return nil, fmt.Errorf("team: %w", ErrNotStarted)
	}
	return s, nil
}

// save recomputes the counters, persists the document and refreshes a Ralph
// loop linked to this team.
func (t *Team) save(s *state.TeamState) error {
	s.TotalTasks = len(s.Tasks)
	s.CompletedTasks = count(s.Tasks, state.TaskCompleted)
	s.Workers = count(s.Tasks, state.TaskInProgress)
	if err := t.store.Write(state.DocTeam, s); err != nil {
		return fmt.Errorf("save team state: %w", err)
	}

	if r := t.ralph.State(); r != nil && r.LinkedTeam != nil && r.LinkedTeam.TeamName != nil && *r.LinkedTeam.TeamName == s.TeamName {
		if _, err := t.ralph.SyncTeam(s); err != nil && !errors.Is(err, ErrNotLinked) {
			return err
		}
	}
	return nil
}

// Create starts a team with tasks, replacing any previous team. Tasks
// default to pending status and the general domain.
func (t *Team) Create(name string, tasks []state.TeamTask) (*state.TeamState, error) {
	seen := make(map[string]bool, len(tasks))
	normalized := make([]state.TeamTask, len(tasks))
	for i, task := range tasks {
		if task.ID == "" {
			return nil, fmt.Errorf("task %d has no id", i)
		}
		if seen[task.ID] {
			return nil, fmt.Errorf("duplicate task id %q", task.ID)
		}
		seen[task.ID] = true

		if task.Status == "" {
			task.Status = state.TaskPending
		}
		if !validStatus(task.Status) {
			return nil, fmt.Errorf("task %s: invalid status %q", task.ID, task.Status)
		}
		if task.Domain == "" {
			task.Domain = state.DomainGeneral
		}
		if !state.ValidDomain(task.Domain) {
			return nil, fmt.Errorf("task %s: invalid domain %q", task.ID, task.Domain)
		}
		if task.Dependencies == nil {
			task.Dependencies = []string{}
		}
		normalized[i] = task
	}

	s := &state.TeamState{
		Mode:      state.ModeTeam,
		Variant:   state.VariantPlain,
		Active:    true,
		TeamName:  name,
		Tasks:     normalized,
		StartedAt: t.store.Now(),
	}
	if err := t.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

func ready(tasks []state.TeamTask) []state.TeamTask {
	status := make(map[string]state.TaskStatus, len(tasks))
	for _, task := range tasks {
		status[task.ID] = task.Status
	}
	out := []state.TeamTask{}
	for _, task := range tasks {
		if task.Status != state.TaskPending {
			continue
		}
		blocked := slices.ContainsFunc(task.Dependencies, func(dep string) bool {
			return status[dep] != state.TaskCompleted
		})
		if !blocked {
			out = append(out, task)
		}
	}
	return out
}

// ReadyTasks returns the pending tasks whose dependencies have all completed.
func (t *Team) ReadyTasks() ([]state.TeamTask, error) {
	s, err := t.load()
	if err != nil {
		return nil, err
	}
	return ready(s.Tasks), nil
}

// Assignment pairs a ready task with the route that should run it.
type Assignment struct {
	Task  state.TeamTask `json:"task" yaml:"task"`
	Route router.Route   `json:"routing" yaml:"routing"`
}

// RouteWorkers routes every ready task by its domain.
func (t *Team) RouteWorkers() ([]Assignment, error) {
	tasks, err := t.ReadyTasks()
	if err != nil {
		return nil, err
	}
	out := make([]Assignment, len(tasks))
	for i, task := range tasks {
		out[i] = Assignment{Task: task, Route: t.router.RouteTask(router.Options{Domain: task.Domain})}
	}
	return out, nil
}

// UpdateTask sets a task's status, and its assignee when one is given.
func (t *Team) UpdateTask(id string, status state.TaskStatus, assignee string) (*state.TeamTask, error) {
	if !validStatus(status) {
		return nil, fmt.Errorf("invalid task status %q", status)
	}
	s, err := t.load()
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(s.Tasks, func(task state.TeamTask) bool { return task.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	s.Tasks[i].Status = status
	if assignee != "" {
		s.Tasks[i].Assignee = assignee
	}
	if err := t.save(s); err != nil {
		return nil, err
	}
	task := s.Tasks[i]
	return &task, nil
}

// IsComplete reports whether every task has finished. Failed tasks count as
// finished; use HasFailures to tell a clean run from a failed one. No team
// means not complete.
func (t *Team) IsComplete() bool {
	s := t.State()
	if s == nil {
		return false
	}
	return !slices.ContainsFunc(s.Tasks, func(task state.TeamTask) bool {
		return task.Status != state.TaskCompleted && task.Status != state.TaskFailed
	})
}

func (t *Team) HasFailures() bool {
	s := t.State()
	return s != nil && count(s.Tasks, state.TaskFailed) > 0
}

// Progress counts tasks per status.
type Progress struct {
	Completed  int `json:"completed" yaml:"completed"`
	InProgress int `json:"inProgress" yaml:"inProgress"`
	Pending    int `json:"pending" yaml:"pending"`
	Failed     int `json:"failed" yaml:"failed"`
	Total      int `json:"total" yaml:"total"`
}

func (t *Team) Progress() Progress {
	s := t.State()
	if s == nil {
		return Progress{}
	}
	return Progress{
		Completed:  count(s.Tasks, state.TaskCompleted),
		InProgress: count(s.Tasks, state.TaskInProgress),
		Pending:    count(s.Tasks, state.TaskPending),
		Failed:     count(s.Tasks, state.TaskFailed),
		Total:      len(s.Tasks),
	}
}

// Cleanup removes the team document.
func (t *Team) Cleanup() error {
	return t.store.Delete(state.DocTeam)
}

func count(tasks []state.TeamTask, status state.TaskStatus) int {
	n := 0
	for _, task := range tasks {
		if task.Status == status {
			n++
		}
	}
	return n
}

func validStatus(s state.TaskStatus) bool {
	switch s {
	case state.TaskPending, state.TaskInProgress, state.TaskCompleted, state.TaskFailed:
		return true
	}
	return false
}
