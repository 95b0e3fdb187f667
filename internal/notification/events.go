package notification

import (
	"fmt"

	"github.com/CodexForgeBR/ccg/internal/jobs"
)

// Event types for background job notifications.
const (
	EventJobCompleted = "job_completed"
	EventJobFailed    = "job_failed"
	EventJobTimeout   = "job_timeout"
	EventJobKilled    = "job_killed"
)

// JobEvent classifies a terminal job. Active jobs have no event.
func JobEvent(job jobs.Job) string {
	switch {
	case job.KilledByUser:
		return EventJobKilled
	case job.Status == jobs.StatusCompleted:
		return EventJobCompleted
	case job.Status == jobs.StatusTimeout:
		return EventJobTimeout
	case job.Status == jobs.StatusFailed:
		return EventJobFailed
	}
	return ""
}

// FormatEvent creates a notification message for a terminal job.
func FormatEvent(projectName string, job jobs.Job) string {
	model := job.Model
	if job.UsedFallback {
		model = job.FallbackModel + " (fallback)"
	}
	switch JobEvent(job) {
	case EventJobCompleted:
		return fmt.Sprintf("✅ %s [%s] %s/%s finished on %s", projectName, job.ID, job.Provider, job.AgentRole, model)
	case EventJobKilled:
		return fmt.Sprintf("🛑 %s [%s] %s/%s killed by user", projectName, job.ID, job.Provider, job.AgentRole)
	case EventJobTimeout:
		return fmt.Sprintf("⏳ %s [%s] %s/%s timed out waiting for a result", projectName, job.ID, job.Provider, job.AgentRole)
	case EventJobFailed:
		return fmt.Sprintf("❌ %s [%s] %s/%s failed: %s", projectName, job.ID, job.Provider, job.AgentRole, job.Error)
	default:
		return fmt.Sprintf("ℹ️ %s [%s] %s/%s is %s", projectName, job.ID, job.Provider, job.AgentRole, job.Status)
	}
}
