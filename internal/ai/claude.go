package ai

import (
	"strconv"

	"github.com/CodexForgeBR/ccg/internal/parser"
)

// DefaultClaudeModel is used when neither the request nor config names one.
const DefaultClaudeModel = "sonnet"

// ClaudeBackend drives the claude CLI in print mode with stream-json output.
type ClaudeBackend struct {
	Model    string
	MaxTurns int
}

func (b *ClaudeBackend) Name() string   { return "claude" }
func (b *ClaudeBackend) Binary() string { return "claude" }

// BuildArgs constructs the argument list for the claude CLI command.
// stream-json in print mode requires --verbose.
func (b *ClaudeBackend) BuildArgs(model string) []string {
	args := []string{
		"--print",
		"--dangerously-skip-permissions",
		"--output-format", "stream-json",
		"--verbose",
	}
	if model != "" {
		args = append(args, "--model", model)
	}
	if b.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(b.MaxTurns))
	}
	return args
}

func (b *ClaudeBackend) Format() parser.Format { return parser.FormatStreamJSON }

func (b *ClaudeBackend) DefaultModel() string {
	if b.Model != "" {
		return b.Model
	}
	return DefaultClaudeModel
}

func (b *ClaudeBackend) FallbackChain() []string { return nil }
