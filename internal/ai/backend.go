package ai

import "github.com/CodexForgeBR/ccg/internal/parser"

// Backend describes how to drive one model CLI.
type Backend interface {
	// Name is the provider name ("gemini", "codex", "claude").
	Name() string
	// Binary is the executable looked up on PATH.
	Binary() string
	// BuildArgs returns the CLI arguments for model. The prompt is always
	// written to stdin.
	BuildArgs(model string) []string
	// Format is the framing of the CLI's stdout.
	Format() parser.Format
	// DefaultModel is used when a request names no model.
	DefaultModel() string
	// FallbackChain is the ordered model list walked on model-not-found.
	// Empty for single-model backends.
	FallbackChain() []string
}

// BackendByName returns the built-in backend for a provider name.
func BackendByName(name string) (Backend, bool) {
	switch name {
	case "gemini":
		return &GeminiBackend{}, true
	case "codex":
		return &CodexBackend{}, true
	case "claude":
		return &ClaudeBackend{}, true
	}
	return nil, false
}
