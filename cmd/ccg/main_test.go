package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodexForgeBR/ccg/internal/ai"
	"github.com/CodexForgeBR/ccg/internal/exitcode"
	"github.com/CodexForgeBR/ccg/internal/jobs"
	"github.com/CodexForgeBR/ccg/internal/modes"
	"github.com/CodexForgeBR/ccg/internal/rpi"
	"github.com/CodexForgeBR/ccg/internal/state"
)

// project switches into an empty project directory with an empty home and
// no OH_MY_CCG_* variables.
func project(t *testing.T) string {
	t.Helper()
	color.NoColor = true
	home := t.TempDir()
	dir := t.TempDir()
	t.Setenv("HOME", home)
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "OH_MY_CCG_") {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}
	t.Chdir(dir)
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	env := &environment{}
	root := newRootCmd(env)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	env.close()
	return out.String(), err
}

func TestExitCode(t *testing.T) {
	ctx := context.Background()
	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want int
	}{
		{"success", ctx, nil, exitcode.Success},
		{"explicit", ctx, &exitError{code: exitcode.JobFailed}, exitcode.JobFailed},
		{"interrupted", cancelled, errors.New("boom"), exitcode.Interrupted},
		{"transition", ctx, fmt.Errorf("wrap: %w", &rpi.TransitionError{From: state.PhaseInit, To: state.PhaseImpl}), exitcode.InvalidTransition},
		{"no rpi state", ctx, rpi.ErrNoActiveState, exitcode.NoActiveState},
		{"ralph not started", ctx, fmt.Errorf("ralph: %w", modes.ErrNotStarted), exitcode.NoActiveState},
		{"backend timeout", ctx, &ai.TimeoutError{}, exitcode.JobTimeout},
		{"other", ctx, errors.New("boom"), exitcode.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.ctx, tt.err))
		})
	}
}

func TestJobExit(t *testing.T) {
	assert.NoError(t, jobExit(jobs.Job{Status: jobs.StatusCompleted}))
	assert.Equal(t, exitcode.JobFailed, exitCode(context.Background(), jobExit(jobs.Job{Status: jobs.StatusFailed})))
	assert.Equal(t, exitcode.JobTimeout, exitCode(context.Background(), jobExit(jobs.Job{Status: jobs.StatusTimeout})))
	assert.True(t, isSilent(jobExit(jobs.Job{Status: jobs.StatusFailed})))
}

func TestRPICommands(t *testing.T) {
	dir := project(t)

	_, err := run(t, "", "rpi", "init", "checkout")
	require.NoError(t, err)
	_, err = run(t, "", "rpi", "transition", "research")
	require.NoError(t, err)
	_, err = run(t, "", "rpi", "constraint", "hard", "keep the API stable")
	require.NoError(t, err)

	_, err = run(t, "", "rpi", "transition", "review")
	require.Error(t, err)
	assert.Equal(t, exitcode.InvalidTransition, exitCode(context.Background(), err))

	out, err := run(t, "", "rpi", "show", "--summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Phase: RESEARCH")
	assert.Contains(t, out, "Change: checkout")
	assert.Contains(t, out, "Constraints: 1H / 0S")

	data, err := os.ReadFile(filepath.Join(dir, ".oh-my-ccg", "state", "rpi-state.json"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "research", doc["phase"])
}

func TestRalphContinueExitCode(t *testing.T) {
	project(t)

	_, err := run(t, "", "ralph", "start", "--max-iterations", "1")
	require.NoError(t, err)
	_, err = run(t, "", "ralph", "continue")
	require.NoError(t, err)

	_, err = run(t, "", "ralph", "next")
	require.NoError(t, err)
	out, err := run(t, "", "ralph", "continue")
	require.Error(t, err)
	assert.True(t, isSilent(err))
	assert.Contains(t, out, "Max iterations reached (1)")

	out, err = run(t, "", "ralph", "status")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestTeamCommands(t *testing.T) {
	dir := project(t)
	tasks := filepath.Join(dir, "tasks.yaml")
	require.NoError(t, os.WriteFile(tasks, []byte(`team: shop
tasks:
  - id: t1
    title: Schema
  - id: t2
    title: API
    domain: backend
    dependencies: [t1]
`), 0o644))

	_, err := run(t, "", "team", "create", "--tasks", tasks)
	require.NoError(t, err)
	_, err = run(t, "", "team", "update", "t1", "completed")
	require.NoError(t, err)

	out, err := run(t, "", "team", "progress", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "completed: 1")
	assert.Contains(t, out, "complete: false")

	out, err = run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Active: team")
	assert.Contains(t, out, "Team shop: ACTIVE")
}

func TestHookStop(t *testing.T) {
	dir := project(t)

	out, err := run(t, fmt.Sprintf(`{"cwd": %q}`, dir), "hook", "stop")
	require.NoError(t, err)
	assert.JSONEq(t, `{"continue": true}`, out)

	_, err = run(t, "", "autopilot", "start", "search", "page")
	require.NoError(t, err)
	out, err = run(t, fmt.Sprintf(`{"cwd": %q}`, dir), "hook", "stop")
	require.NoError(t, err)
	assert.Contains(t, out, `"continue":false`)
	assert.Contains(t, out, "Autopilot active (phase: init)")
}

func TestCallList(t *testing.T) {
	project(t)
	out, err := run(t, "", "call", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, `"ask_codex"`)
	assert.Contains(t, out, `"team_dispatch"`)

	_, err = run(t, "", "call", "route_task", "{not json")
	assert.Error(t, err)

	out, err = run(t, "", "call", "route_task", `{"domain": "frontend"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"routes"`)
}

func TestConfigFromEnvironment(t *testing.T) {
	project(t)
	t.Setenv("OH_MY_CCG_RALPH_MAX_ITERATIONS", "4")

	out, err := run(t, "", "ralph", "start")
	require.NoError(t, err)
	assert.Contains(t, out, `"maxIterations": 4`)

	out, err = run(t, "", "ralph", "start", "--ralph-max-iterations", "6")
	require.NoError(t, err)
	assert.Contains(t, out, `"maxIterations": 6`)
}
