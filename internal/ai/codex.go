package ai

import "github.com/CodexForgeBR/ccg/internal/parser"

// DefaultCodexModel is used when neither the request nor config names one.
const DefaultCodexModel = "gpt-5.3-codex"

// CodexBackend drives `codex exec` with JSONL events on stdout.
type CodexBackend struct {
	Model string
}

func (b *CodexBackend) Name() string   { return "codex" }
func (b *CodexBackend) Binary() string { return "codex" }

// BuildArgs ends with "-" so codex reads the prompt from stdin.
func (b *CodexBackend) BuildArgs(model string) []string {
	args := []string{
		"exec",
		"--json",
		"--dangerously-bypass-approvals-and-sandbox",
	}
	if model != "" {
		args = append(args, "--model", model)
	}
	return append(args, "-")
}

func (b *CodexBackend) Format() parser.Format { return parser.FormatCodexJSONL }

func (b *CodexBackend) DefaultModel() string {
	if b.Model != "" {
		return b.Model
	}
	return DefaultCodexModel
}

func (b *CodexBackend) FallbackChain() []string { return nil }
