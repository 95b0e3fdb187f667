package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hack-pad/hackpadfs/mem"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodexForgeBR/ccg/internal/ai"
	"github.com/CodexForgeBR/ccg/internal/jobs"
	"github.com/CodexForgeBR/ccg/internal/modes"
	"github.com/CodexForgeBR/ccg/internal/state"
)

// echoExecutor answers immediately with a fixed content and remembers the
// requests it saw.
type echoExecutor struct {
	model   string
	content string

	mu   sync.Mutex
	seen []ai.Request
}

func (e *echoExecutor) ResolveModel(req ai.Request) string {
	if req.Model != "" {
		return req.Model
	}
	return e.model
}

func (e *echoExecutor) Run(_ context.Context, req ai.Request) (*ai.Result, error) {
	e.mu.Lock()
	e.seen = append(e.seen, req)
	e.mu.Unlock()
	return &ai.Result{Content: e.content, Model: e.ResolveModel(req)}, nil
}

func (e *echoExecutor) requests() []ai.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ai.Request(nil), e.seen...)
}

type fixture struct {
	h      *Handler
	store  *state.Store
	codex  *echoExecutor
	gemini *echoExecutor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	store := state.NewStore(fsys, state.DefaultDir)
	store.SetClock(func() time.Time { return time.Date(2026, 5, 6, 7, 0, 0, 0, time.UTC) })

	codex := &echoExecutor{model: "gpt-5.3-codex", content: "codex says hi"}
	gemini := &echoExecutor{model: "gemini-3-pro-preview", content: `Looks good. {"passed": true, "issues": []}`}
	execs := map[string]jobs.Executor{"codex": codex, "gemini": gemini}

	reg := jobs.New(jobs.Config{
		Executors: execs,
		Poll:      jobs.PollConfig{Initial: time.Millisecond, Factor: 1.5, Max: 5 * time.Millisecond},
	})
	t.Cleanup(reg.Close)

	h := New(Config{
		Jobs:               reg,
		Executors:          execs,
		WorkDir:            "/project",
		OpenStore:          func(string) (*state.Store, error) { return store, nil },
		RalphMaxIterations: 10,
		ContextThreshold:   80,
	})
	return &fixture{h: h, store: store, codex: codex, gemini: gemini}
}

func (f *fixture) invoke(t *testing.T, name string, args any) any {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	out, err := f.h.Invoke(context.Background(), name, raw)
	require.NoError(t, err, name)
	return out
}

func (f *fixture) fail(t *testing.T, name string, args any) string {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	res := f.h.Call(context.Background(), name, raw)
	require.True(t, res.IsError, "%s: expected an error, got %s", name, resultText(t, res))
	var e ErrorResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &e))
	return e.Error
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return text.Text
}

func TestTools_Listing(t *testing.T) {
	f := newFixture(t)
	names := map[string]bool{}
	for _, tool := range f.h.Tools() {
		names[tool.Name] = true
		assert.Equal(t, "object", tool.InputSchema.Type, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
	for _, want := range []string{
		"ask_codex", "ask_gemini", "ask_claude", "wait_for_job", "check_job_status", "kill_job", "list_jobs",
		"rpi_state_read", "rpi_state_write", "mode_state_read", "mode_state_write",
		"ralph_start", "team_create", "team_dispatch", "autopilot_advance", "route_task", "status",
	} {
		assert.True(t, names[want], want)
	}
}

func TestCall_UnknownToolAndBadArgs(t *testing.T) {
	f := newFixture(t)

	_, err := f.h.Invoke(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)

	assert.Contains(t, f.fail(t, "kill_job", []int{1, 2}), "invalid arguments")
}

func TestCall_RendersIndentedJSON(t *testing.T) {
	f := newFixture(t)
	res := f.h.Call(context.Background(), "route_agent", json.RawMessage(`{"agent": "team-frontend"}`))
	assert.False(t, res.IsError)
	text := resultText(t, res)
	assert.True(t, strings.HasPrefix(text, "{\n  \"routes\": ["), text)
}

func TestCall_ConcurrentStateWritesAreSerialized(t *testing.T) {
	f := newFixture(t)
	f.invoke(t, "rpi_state_write", map[string]any{"action": "init", "change_name": "load"})

	const n = 30
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, _ := json.Marshal(map[string]any{
				"action": "constraint", "type": "soft", "source": "codex", "description": fmt.Sprint("c", i),
			})
			res := f.h.Call(context.Background(), "rpi_state_write", raw)
			assert.False(t, res.IsError)
		}()
	}
	wg.Wait()

	var doc state.RPIState
	require.True(t, f.store.Read(state.DocRPI, &doc))
	require.Len(t, doc.Constraints, n)
	ids := map[string]bool{}
	for _, c := range doc.Constraints {
		ids[c.ID] = true
	}
	assert.Len(t, ids, n)
}

func TestAsk_Sync(t *testing.T) {
	f := newFixture(t)
	out := f.invoke(t, "ask_codex", map[string]any{"agent_role": "architect", "prompt": "review this"})

	res, ok := out.(AskResult)
	require.True(t, ok)
	assert.Equal(t, "codex says hi", res.Content)
	assert.Equal(t, "gpt-5.3-codex", res.Model)

	reqs := f.codex.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/project", reqs[0].WorkDir)
	assert.Equal(t, "architect", reqs[0].Role)
}

func TestAsk_Validation(t *testing.T) {
	f := newFixture(t)

	assert.Contains(t, f.fail(t, "ask_codex", map[string]any{"prompt": "x"}), "agent_role")
	assert.Contains(t, f.fail(t, "ask_claude", map[string]any{"agent_role": "executor"}), "not enabled")
	assert.Contains(t, f.fail(t, "ask_codex", map[string]any{"agent_role": "architect", "model": "gemini-2.5-pro"}), "looks like")
}

func TestAsk_GeminiTriesAnyRequestedModel(t *testing.T) {
	f := newFixture(t)
	out := f.invoke(t, "ask_gemini", map[string]any{"agent_role": "designer", "prompt": "p", "model": "gpt-5"})

	res, ok := out.(AskResult)
	require.True(t, ok)
	assert.Equal(t, "gpt-5", res.Model)
	reqs := f.gemini.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "gpt-5", reqs[0].Model)
}

func TestAsk_BackgroundThenWait(t *testing.T) {
	f := newFixture(t)
	out := f.invoke(t, "ask_gemini", map[string]any{"agent_role": "designer", "prompt": "p", "background": true})
	started := out.(JobResponse)
	require.NotEmpty(t, started.JobID)
	assert.Equal(t, jobs.StatusSpawned, started.Status)
	assert.Contains(t, started.Message, "wait_for_job")

	done := f.invoke(t, "wait_for_job", map[string]any{"job_id": started.JobID, "timeout_ms": 5000}).(JobResponse)
	assert.Equal(t, jobs.StatusCompleted, done.Status)
	assert.Contains(t, done.Result, `"passed": true`)
	assert.NotEmpty(t, done.CompletedAt)

	status := f.invoke(t, "check_job_status", map[string]any{"job_id": started.JobID}).(JobResponse)
	assert.Equal(t, done.Result, status.ResultPreview)

	list := f.invoke(t, "list_jobs", map[string]any{"status_filter": "all"}).(JobList)
	assert.Equal(t, 1, list.Total)

	assert.Contains(t, f.fail(t, "kill_job", map[string]any{"job_id": started.JobID}), "terminal")
	assert.Contains(t, f.fail(t, "check_job_status", map[string]any{"job_id": "missing"}), "job not found")
}

func TestPreview_TruncatesRunes(t *testing.T) {
	long := strings.Repeat("é", previewLen+10)
	assert.Len(t, []rune(preview(long)), previewLen)
	assert.Equal(t, "short", preview("short"))
}

func TestRPIStateTools(t *testing.T) {
	f := newFixture(t)

	assert.Contains(t, f.fail(t, "rpi_state_read", nil), "no RPI state")

	f.invoke(t, "rpi_state_write", map[string]any{"action": "init"})
	f.invoke(t, "rpi_state_write", map[string]any{"action": "transition", "phase": "research", "change_name": "billing"})
	f.invoke(t, "rpi_state_write", map[string]any{"action": "constraint", "type": "hard", "description": "keep API", "source": "user"})
	f.invoke(t, "rpi_state_write", map[string]any{"action": "decision", "key": "db", "value": "postgres"})
	f.invoke(t, "rpi_state_write", map[string]any{"action": "artifact", "kind": "proposal", "path": "proposal.md"})

	msg := f.fail(t, "rpi_state_write", map[string]any{"action": "transition", "phase": "review"})
	assert.Contains(t, msg, "research -> review")

	s := f.invoke(t, "rpi_state_read", nil).(*state.RPIState)
	assert.Equal(t, state.PhaseResearch, s.Phase)
	assert.Equal(t, "billing", *s.ChangeName)
	assert.Len(t, s.Constraints, 1)
	assert.Equal(t, "postgres", s.Decisions["db"])
	assert.Equal(t, "proposal.md", *s.Artifacts.Proposal)

	f.fail(t, "rpi_state_write", map[string]any{"action": "artifact", "kind": "readme", "path": "x"})
	f.fail(t, "rpi_state_write", map[string]any{"action": "bogus"})
}

func TestModeStateTools(t *testing.T) {
	f := newFixture(t)
	f.invoke(t, "ralph_start", map[string]any{"max_iterations": 3})

	f.invoke(t, "mode_state_write", map[string]any{"mode": "ralph", "updates": map[string]any{"iteration": 2}})
	var doc map[string]any
	require.True(t, f.store.Read(state.DocRalph, &doc))
	assert.EqualValues(t, 2, doc["iteration"])

	msg := f.fail(t, "mode_state_write", map[string]any{"mode": "ralph", "updates": map[string]any{"variant": "composite"}})
	assert.Contains(t, msg, "variant")
	f.fail(t, "mode_state_read", map[string]any{"mode": "swarm"})
}

func TestRalphTools(t *testing.T) {
	f := newFixture(t)
	started := f.invoke(t, "ralph_start", nil).(*state.RalphState)
	assert.Equal(t, 10, started.MaxIterations)

	f.invoke(t, "ralph_next_iteration", nil)
	d := f.invoke(t, "ralph_should_continue", nil).(modes.Decision)
	assert.True(t, d.Continue)

	f.fail(t, "ralph_record_verification", nil)
	s := f.invoke(t, "ralph_record_verification", map[string]any{"passed": false, "tests": false, "build": true, "issues": []string{"flaky"}}).(*state.RalphState)
	require.NotNil(t, s.LastVerification)
	assert.False(t, s.LastVerification.Tests)
	assert.True(t, s.LastVerification.Build)
	assert.False(t, s.LastVerification.LSP)

	job := f.invoke(t, "ask_gemini", map[string]any{"agent_role": "critic", "background": true}).(JobResponse)
	f.invoke(t, "wait_for_job", map[string]any{"job_id": job.JobID, "timeout_ms": 5000})
	s = f.invoke(t, "ralph_record_verification", map[string]any{"job_id": job.JobID}).(*state.RalphState)
	assert.True(t, s.LastVerification.Passed)
	assert.False(t, s.Active)

	st := f.invoke(t, "ralph_status", nil).(Status)
	assert.Contains(t, st.Summary, "Ralph Loop: INACTIVE")

	f.invoke(t, "ralph_cancel", map[string]any{"reset": true})
	assert.False(t, f.store.Exists(state.DocRalph))
}

func TestTeamTools_Dispatch(t *testing.T) {
	f := newFixture(t)
	f.invoke(t, "team_create", map[string]any{
		"team_name": "shop",
		"tasks": []map[string]any{
			{"id": "t1", "title": "Cart UI", "domain": "frontend"},
			{"id": "t2", "title": "Cart API", "domain": "backend", "dependencies": []string{"t3"}},
			{"id": "t3", "title": "Schema"},
		},
	})
	f.fail(t, "team_create", map[string]any{"team_name": "x", "tasks": []map[string]any{{"id": "a", "domain": "mobile"}}})

	ready := f.invoke(t, "team_ready", nil).(Assignments)
	require.Len(t, ready.Tasks, 2)

	d := f.invoke(t, "team_dispatch", nil).(Dispatch)
	require.Len(t, d.Dispatched, 1)
	assert.Equal(t, "t1", d.Dispatched[0].TaskID)
	assert.Equal(t, "gemini", d.Dispatched[0].Provider)
	require.Len(t, d.Remaining, 1)
	assert.Equal(t, "t3", d.Remaining[0].Task.ID)
	assert.Equal(t, "claude", d.Remaining[0].Route.Provider)

	team := modes.NewTeam(f.store, nil).State()
	require.NotNil(t, team)
	assert.Equal(t, state.TaskInProgress, team.Tasks[0].Status)
	assert.Equal(t, "job:"+d.Dispatched[0].JobID, team.Tasks[0].Assignee)
	assert.Equal(t, 1, team.Workers)

	f.invoke(t, "team_update_task", map[string]any{"task_id": "t1", "status": "completed"})
	f.invoke(t, "team_update_task", map[string]any{"task_id": "t3", "status": "failed"})
	p := f.invoke(t, "team_progress", nil).(TeamProgress)
	assert.Equal(t, 1, p.Completed)
	assert.Equal(t, 1, p.Failed)
	assert.True(t, p.HasFailures)
	assert.False(t, p.Complete)

	f.invoke(t, "team_cleanup", nil)
	f.fail(t, "team_progress", nil)
}

func TestAutopilotTools(t *testing.T) {
	f := newFixture(t)
	f.fail(t, "autopilot_advance", nil)

	f.invoke(t, "autopilot_start", map[string]any{"requirement": "search", "linked_ralph": true})
	s := modes.NewAutopilot(f.store, nil).State()
	require.NotNil(t, s)
	assert.True(t, s.Composite())

	var last AdvanceResult
	for _, want := range []state.Phase{state.PhaseResearch, state.PhasePlan, state.PhaseImpl} {
		last = f.invoke(t, "autopilot_advance", nil).(AdvanceResult)
		assert.Equal(t, want, last.NextPhase)
		assert.NotEmpty(t, last.Instructions)
	}
	assert.True(t, last.ShouldStartRalph)
	assert.False(t, last.ShouldStartTeam)

	f.invoke(t, "autopilot_set_action", map[string]any{"action": "running ralph"})
	in := f.invoke(t, "autopilot_instructions", nil).(Instructions)
	assert.Equal(t, state.PhaseImpl, in.Phase)

	c := f.invoke(t, "autopilot_check_context", map[string]any{"percent": 85}).(modes.ContextCheck)
	assert.True(t, c.ShouldClear)
	c = f.invoke(t, "autopilot_check_context", map[string]any{"percent": 85, "threshold": 90}).(modes.ContextCheck)
	assert.False(t, c.ShouldClear)

	f.invoke(t, "autopilot_advance", nil)
	end := f.invoke(t, "autopilot_advance", nil).(AdvanceResult)
	assert.True(t, end.Finished)

	f.invoke(t, "autopilot_cancel", nil)
	st := f.invoke(t, "autopilot_status", nil).(Status)
	assert.NotEmpty(t, st.Summary)
}

func TestRouteTools(t *testing.T) {
	f := newFixture(t)

	r := f.invoke(t, "route_task", map[string]any{"domain": "frontend"}).(Routes)
	require.Len(t, r.Routes, 1)
	assert.Equal(t, "gemini", r.Routes[0].Provider)

	r = f.invoke(t, "route_task", map[string]any{"cross_validation": true}).(Routes)
	assert.Len(t, r.Routes, 2)

	f.fail(t, "route_task", map[string]any{"domain": "mobile"})
	f.fail(t, "route_agent", nil)
	r = f.invoke(t, "route_agent", map[string]any{"agent": "unknown-agent"}).(Routes)
	assert.Empty(t, r.Routes)
}

func TestStatusTool(t *testing.T) {
	f := newFixture(t)
	o := f.invoke(t, "status", nil).(Overview)
	assert.Equal(t, []string{}, o.ActiveModes)
	assert.Equal(t, "No active RPI session.", o.RPI)
	assert.Empty(t, o.Ralph)

	f.invoke(t, "ralph_start", nil)
	f.invoke(t, "team_create", map[string]any{"team_name": "core", "tasks": []map[string]any{{"id": "a", "title": "A"}}})
	o = f.invoke(t, "status", nil).(Overview)
	assert.Equal(t, []string{"ralph", "team"}, o.ActiveModes)
	assert.Contains(t, o.Ralph, "Ralph Loop: ACTIVE")
	assert.Contains(t, o.Team, "Team core: ACTIVE")
	assert.Contains(t, o.Team, "0/1 completed")
}
