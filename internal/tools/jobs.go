package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/CodexForgeBR/ccg/internal/ai"
	"github.com/CodexForgeBR/ccg/internal/jobs"
	"github.com/CodexForgeBR/ccg/internal/model"
	"github.com/CodexForgeBR/ccg/internal/signal"
)

// previewLen bounds result_preview in check_job_status.
const previewLen = 500

// isoMillis matches the millisecond ISO-8601 timestamps of the state files.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var askDescriptions = map[string]string{
	model.Codex:  "Send a prompt to Codex for analysis. Recommended roles: architect, analyst, planner, critic, code-reviewer, security-reviewer, test-engineer. Set background=true for parallel execution.",
	model.Gemini: "Send a prompt to Gemini for analysis. 1M token context window. Recommended roles: designer, writer. Auto-fallback through the Gemini model chain when a model is not found. Set background=true for parallel execution.",
	model.Claude: "Send a prompt to a separate Claude CLI process. Recommended role: executor. Set background=true for parallel execution.",
}

func (h *Handler) registerJobTools() {
	for _, p := range []string{model.Codex, model.Gemini, model.Claude} {
		h.register(tool("ask_"+p, askDescriptions[p],
			str("agent_role", "Agent perspective (loads the matching role prompt)", required()),
			str("prompt", "Inline prompt text"),
			strs("files", "File paths to include as context"),
			boolean("background", "Run in background: returns job_id immediately. Use wait_for_job or check_job_status to get results."),
			str("working_directory", "Working directory for CLI execution"),
			str("model", "Model override (default: "+model.DefaultModel(p)+")"),
		), bind(h.ask(p)))
	}

	h.register(tool("wait_for_job",
		"Block until a background job reaches a terminal state (completed, failed, timeout), polling with exponential backoff. Returns the response on success.",
		str("job_id", "The job ID returned by an ask_* tool with background=true", required()),
		num("timeout_ms", "Max wait time in ms (default: 300000, max: 3600000)"),
	), bind(h.waitForJob))

	h.register(tool("check_job_status",
		"Non-blocking status check for a background job. Returns current status, metadata, and a result preview if completed.",
		str("job_id", "The job ID to check", required()),
	), bind(h.checkJobStatus))

	h.register(tool("kill_job",
		"Send a signal to a running background job. Only works on jobs in spawned/running state.",
		str("job_id", "The job ID to kill", required()),
		enum("signal", "Signal to send (default: SIGTERM)", []string{"SIGTERM", "SIGINT"}),
	), bind(h.killJob))

	h.register(tool("list_jobs",
		"List background jobs. Filter by status. Results sorted newest first.",
		enum("status_filter", "Filter by status (default: active)", []string{"active", "completed", "failed", "all"}),
		num("limit", "Max results (default: 50, max: 200)"),
	), bind(h.listJobs))
}

// CheckModel rejects a model that belongs to another provider's family.
// Backends with a fallback chain try any requested model first and leave
// the verdict to their CLI.
func CheckModel(provider, modelID, label string) error {
	if b, ok := ai.BackendByName(provider); ok && len(b.FallbackChain()) > 0 {
		return nil
	}
	return model.Validate(provider, modelID, label)
}

type askArgs struct {
	AgentRole        string   `json:"agent_role"`
	Prompt           string   `json:"prompt"`
	Files            []string `json:"files"`
	Background       bool     `json:"background"`
	WorkingDirectory string   `json:"working_directory"`
	Model            string   `json:"model"`
}

// AskResult is the answer of a synchronous ask_* call.
type AskResult struct {
	Content       string `json:"content" yaml:"content"`
	Model         string `json:"model" yaml:"model"`
	UsedFallback  bool   `json:"used_fallback,omitempty" yaml:"used_fallback,omitempty"`
	FallbackModel string `json:"fallback_model,omitempty" yaml:"fallback_model,omitempty"`
}

// JobResponse is the view of a job returned by the job tools.
type JobResponse struct {
	JobID         string      `json:"job_id" yaml:"job_id"`
	Status        jobs.Status `json:"status" yaml:"status"`
	Provider      string      `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model         string      `json:"model,omitempty" yaml:"model,omitempty"`
	AgentRole     string      `json:"agent_role,omitempty" yaml:"agent_role,omitempty"`
	SpawnedAt     string      `json:"spawned_at,omitempty" yaml:"spawned_at,omitempty"`
	CompletedAt   string      `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Result        string      `json:"result,omitempty" yaml:"result,omitempty"`
	ResultPreview string      `json:"result_preview,omitempty" yaml:"result_preview,omitempty"`
	Error         string      `json:"error,omitempty" yaml:"error,omitempty"`
	KilledByUser  bool        `json:"killed_by_user,omitempty" yaml:"killed_by_user,omitempty"`
	UsedFallback  bool        `json:"used_fallback,omitempty" yaml:"used_fallback,omitempty"`
	FallbackModel string      `json:"fallback_model,omitempty" yaml:"fallback_model,omitempty"`
	Message       string      `json:"message,omitempty" yaml:"message,omitempty"`
}

func jobView(j jobs.Job) JobResponse {
	r := JobResponse{
		JobID:         j.ID,
		Status:        j.Status,
		Provider:      j.Provider,
		Model:         j.Model,
		AgentRole:     j.AgentRole,
		SpawnedAt:     j.SpawnedAt.UTC().Format(isoMillis),
		Error:         j.Error,
		KilledByUser:  j.KilledByUser,
		UsedFallback:  j.UsedFallback,
		FallbackModel: j.FallbackModel,
	}
	if j.CompletedAt != nil {
		r.CompletedAt = j.CompletedAt.UTC().Format(isoMillis)
	}
	return r
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLen {
		return s
	}
	return string(r[:previewLen])
}

func (h *Handler) ask(provider string) func(context.Context, askArgs) (any, error) {
	return func(ctx context.Context, a askArgs) (any, error) {
		if a.AgentRole == "" {
			return nil, fmt.Errorf("agent_role is required")
		}
		if err := CheckModel(provider, a.Model, "model"); err != nil {
			return nil, err
		}
		exec, enabled := h.cfg.Executors[provider]
		if !enabled {
			return nil, fmt.Errorf("provider %s is not enabled", provider)
		}

		workDir := a.WorkingDirectory
		if workDir == "" {
			workDir = h.cfg.WorkDir
		}
		req := ai.Request{
			Prompt:  a.Prompt,
			Role:    a.AgentRole,
			Files:   a.Files,
			WorkDir: workDir,
			Model:   a.Model,
		}

		if a.Background {
			job, err := h.cfg.Jobs.Dispatch(provider, req)
			if err != nil {
				return nil, err
			}
			return JobResponse{
				JobID:   job.ID,
				Status:  job.Status,
				Message: "Use wait_for_job or check_job_status to get results.",
			}, nil
		}

		res, err := exec.Run(ctx, req)
		if err != nil {
			return nil, err
		}
		return AskResult{
			Content:       res.Content,
			Model:         res.Model,
			UsedFallback:  res.UsedFallback,
			FallbackModel: res.FallbackModel,
		}, nil
	}
}

type jobArgs struct {
	JobID     string `json:"job_id"`
	TimeoutMs int64  `json:"timeout_ms"`
	Signal    string `json:"signal"`
}

func (a jobArgs) id() (string, error) {
	if a.JobID == "" {
		return "", fmt.Errorf("job_id is required")
	}
	return a.JobID, nil
}

func (h *Handler) waitForJob(ctx context.Context, a jobArgs) (any, error) {
	id, err := a.id()
	if err != nil {
		return nil, err
	}
	job, err := h.cfg.Jobs.Wait(ctx, id, time.Duration(a.TimeoutMs)*time.Millisecond)
	if err != nil {
		return nil, err
	}
	view := jobView(job)
	if job.Status == jobs.StatusCompleted {
		view.Result = job.Result
	}
	return view, nil
}

func (h *Handler) checkJobStatus(_ context.Context, a jobArgs) (any, error) {
	id, err := a.id()
	if err != nil {
		return nil, err
	}
	job, err := h.cfg.Jobs.Get(id)
	if err != nil {
		return nil, err
	}
	view := jobView(job)
	if job.Status == jobs.StatusCompleted {
		view.ResultPreview = preview(job.Result)
	}
	return view, nil
}

func (h *Handler) killJob(_ context.Context, a jobArgs) (any, error) {
	id, err := a.id()
	if err != nil {
		return nil, err
	}
	_, name, err := signal.Parse(a.Signal)
	if err != nil {
		return nil, err
	}
	job, err := h.cfg.Jobs.Cancel(id, name)
	if err != nil {
		return nil, err
	}
	return JobResponse{
		JobID:   job.ID,
		Status:  job.Status,
		Message: "Job killed with " + name,
	}, nil
}

type listArgs struct {
	StatusFilter string `json:"status_filter"`
	Limit        int    `json:"limit"`
}

// JobList is the result of list_jobs.
type JobList struct {
	Jobs  []JobResponse `json:"jobs" yaml:"jobs"`
	Total int           `json:"total" yaml:"total"`
}

func (h *Handler) listJobs(_ context.Context, a listArgs) (any, error) {
	filter, err := jobs.ParseFilter(a.StatusFilter)
	if err != nil {
		return nil, err
	}
	list, err := h.cfg.Jobs.List(filter, a.Limit)
	if err != nil {
		return nil, err
	}
	out := JobList{Jobs: make([]JobResponse, len(list)), Total: len(list)}
	for i, j := range list {
		v := jobView(j)
		v.Error, v.FallbackModel, v.UsedFallback = "", "", false
		out.Jobs[i] = v
	}
	return out, nil
}
