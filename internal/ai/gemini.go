package ai

import "github.com/CodexForgeBR/ccg/internal/parser"

// GeminiFallbackChain is walked from the requested model onwards whenever
// the CLI reports the model as unknown.
var GeminiFallbackChain = []string{
	"gemini-3-pro-preview",
	"gemini-3-flash-preview",
	"gemini-2.5-pro",
	"gemini-2.5-flash",
}

// GeminiBackend drives the gemini CLI in non-interactive yolo mode.
type GeminiBackend struct {
	Model string
}

func (b *GeminiBackend) Name() string   { return "gemini" }
func (b *GeminiBackend) Binary() string { return "gemini" }

// BuildArgs uses "-p=." so that gemini reads the real prompt from stdin.
func (b *GeminiBackend) BuildArgs(model string) []string {
	args := []string{"-p=.", "--yolo"}
	if model != "" {
		args = append(args, "--model", model)
	}
	return args
}

func (b *GeminiBackend) Format() parser.Format { return parser.FormatText }

func (b *GeminiBackend) DefaultModel() string {
	if b.Model != "" {
		return b.Model
	}
	return GeminiFallbackChain[0]
}

func (b *GeminiBackend) FallbackChain() []string { return GeminiFallbackChain }
