package modes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodexForgeBR/ccg/internal/router"
	"github.com/CodexForgeBR/ccg/internal/state"
)

func sampleTasks() []state.TeamTask {
	return []state.TeamTask{
		{ID: "api", Title: "API", Domain: state.DomainBackend},
		{ID: "ui", Title: "UI", Domain: state.DomainFrontend, Dependencies: []string{"api"}},
		{ID: "docs", Title: "Docs"},
		{ID: "e2e", Title: "E2E", Domain: state.DomainFullstack, Dependencies: []string{"api", "ui"}},
	}
}

func TestTeam_CreateNormalizesTasks(t *testing.T) {
	team := NewTeam(newStore(t), nil)

	s, err := team.Create("checkout", sampleTasks())
	require.NoError(t, err)
	assert.True(t, s.Active)
	assert.Equal(t, 4, s.TotalTasks)
	assert.Zero(t, s.CompletedTasks)

	docs := s.Tasks[2]
	assert.Equal(t, state.TaskPending, docs.Status)
	assert.Equal(t, state.DomainGeneral, docs.Domain)
	assert.Equal(t, []string{}, docs.Dependencies)
}

func TestTeam_CreateRejectsBadTasks(t *testing.T) {
	team := NewTeam(newStore(t), nil)

	_, err := team.Create("x", []state.TeamTask{{ID: "a"}, {ID: "a"}})
	assert.ErrorContains(t, err, "duplicate")
	_, err = team.Create("x", []state.TeamTask{{Title: "no id"}})
	assert.Error(t, err)
	_, err = team.Create("x", []state.TeamTask{{ID: "a", Status: "blocked"}})
	assert.Error(t, err)
}

func TestTeam_ReadyTasksFollowDependencies(t *testing.T) {
	team := NewTeam(newStore(t), nil)
	_, err := team.Create("checkout", sampleTasks())
	require.NoError(t, err)

	ids := func() []string {
		tasks, err := team.ReadyTasks()
		require.NoError(t, err)
		out := []string{}
		for _, task := range tasks {
			out = append(out, task.ID)
		}
		return out
	}

	assert.Equal(t, []string{"api", "docs"}, ids())

	_, err = team.UpdateTask("api", state.TaskInProgress, "worker-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, ids(), "in-progress tasks are not ready")

	_, err = team.UpdateTask("api", state.TaskCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ui", "docs"}, ids())

	_, err = team.UpdateTask("ui", state.TaskFailed, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, ids(), "a failed dependency blocks dependents")
}

func TestTeam_RouteWorkers(t *testing.T) {
	team := NewTeam(newStore(t), router.New())
	_, err := team.Create("checkout", sampleTasks())
	require.NoError(t, err)
	_, err = team.UpdateTask("api", state.TaskCompleted, "")
	require.NoError(t, err)

	assignments, err := team.RouteWorkers()
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "ui", assignments[0].Task.ID)
	assert.Equal(t, "gemini", assignments[0].Route.Provider)
	assert.Equal(t, "designer", assignments[0].Route.Role)
	assert.Equal(t, "docs", assignments[1].Task.ID)
	assert.Equal(t, "claude", assignments[1].Route.Provider)
}

func TestTeam_UpdateTask(t *testing.T) {
	team := NewTeam(newStore(t), nil)

	_, err := team.UpdateTask("api", state.TaskCompleted, "")
	assert.ErrorIs(t, err, ErrNotStarted)

	_, err = team.Create("checkout", sampleTasks())
	require.NoError(t, err)

	_, err = team.UpdateTask("nope", state.TaskCompleted, "")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = team.UpdateTask("api", "done", "")
	assert.Error(t, err)

	task, err := team.UpdateTask("api", state.TaskInProgress, "codex-1")
	require.NoError(t, err)
	assert.Equal(t, "codex-1", task.Assignee)
	assert.Equal(t, 1, team.State().Workers)

	task, err = team.UpdateTask("api", state.TaskCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, "codex-1", task.Assignee, "empty assignee keeps the previous one")

	s := team.State()
	assert.Equal(t, 1, s.CompletedTasks)
	assert.Zero(t, s.Workers)
}

func TestTeam_CompletionAndFailures(t *testing.T) {
	team := NewTeam(newStore(t), nil)
	assert.False(t, team.IsComplete())
	assert.False(t, team.HasFailures())

	_, err := team.Create("small", []state.TeamTask{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	assert.False(t, team.IsComplete())

	_, err = team.UpdateTask("a", state.TaskCompleted, "")
	require.NoError(t, err)
	_, err = team.UpdateTask("b", state.TaskFailed, "")
	require.NoError(t, err)

	assert.True(t, team.IsComplete(), "failed tasks do not block completion")
	assert.True(t, team.HasFailures())
	assert.Equal(t, Progress{Completed: 1, Failed: 1, Total: 2}, team.Progress())
}

func TestTeam_ProgressRestoredFromStore(t *testing.T) {
	store := newStore(t)
	_, err := NewTeam(store, nil).Create("checkout", sampleTasks())
	require.NoError(t, err)

	restored := NewTeam(store, nil)
	_, err = restored.UpdateTask("docs", state.TaskInProgress, "")
	require.NoError(t, err)
	assert.Equal(t, Progress{InProgress: 1, Pending: 3, Total: 4}, restored.Progress())
}

func TestTeam_UpdatesSyncLinkedRalph(t *testing.T) {
	store := newStore(t)
	ralph := NewRalph(store)
	_, err := ralph.StartLinked("checkout", 5, 4)
	require.NoError(t, err)

	team := NewTeam(store, nil)
	_, err = team.Create("checkout", sampleTasks())
	require.NoError(t, err)
	_, err = team.UpdateTask("api", state.TaskCompleted, "")
	require.NoError(t, err)

	linked := ralph.State().LinkedTeam
	assert.Equal(t, 1, linked.CompletedTasks)
	assert.Equal(t, 4, linked.TotalTasks)
}

func TestTeam_Cleanup(t *testing.T) {
	store := newStore(t)
	team := NewTeam(store, nil)
	_, err := team.Create("checkout", sampleTasks())
	require.NoError(t, err)

	require.NoError(t, team.Cleanup())
	assert.Nil(t, team.State())
	_, err = team.ReadyTasks()
	assert.ErrorIs(t, err, ErrNotStarted)
}
