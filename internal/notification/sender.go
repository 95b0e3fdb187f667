// Package notification sends fire-and-forget chat messages when background
// jobs finish.
package notification

import (
	"context"
	"os/exec"
	"time"

	"github.com/CodexForgeBR/ccg/internal/jobs"
	"github.com/CodexForgeBR/ccg/internal/logging"
)

const sendTimeout = 10 * time.Second

// Sender delivers messages through the openclaw CLI.
type Sender struct {
	Webhook string
	Channel string
	ChatID  string
	// Binary defaults to "openclaw".
	Binary string
}

// Enabled reports whether a chat id is configured.
func (s *Sender) Enabled() bool {
	return s != nil && s.ChatID != ""
}

// Args returns the CLI arguments for message.
func (s *Sender) Args(message string) []string {
	return []string{"message", "send",
		"--webhook", s.Webhook,
		"--channel", s.Channel,
		"--chat-id", s.ChatID,
		"--message", message,
	}
}

// Send delivers message and waits at most ten seconds. It is a no-op when
// no chat id is configured and never reports failure.
func (s *Sender) Send(ctx context.Context, message string) {
	if !s.Enabled() {
		return
	}
	bin := s.Binary
	if bin == "" {
		bin = "openclaw"
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := exec.CommandContext(ctx, bin, s.Args(message)...).Run(); err != nil {
		logging.Debugf("notification not sent: %v", err)
	}
}

// JobHook returns a callback for the job registry that announces every
// terminal job in the background. It returns nil when notifications are
// disabled.
func (s *Sender) JobHook(projectName string) func(jobs.Job) {
	if !s.Enabled() {
		return nil
	}
	return func(job jobs.Job) {
		go s.Send(context.Background(), FormatEvent(projectName, job))
	}
}
