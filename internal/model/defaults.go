// Package model names the model providers and resolves which model a
// request runs with.
package model

import (
	"slices"

	"github.com/CodexForgeBR/ccg/internal/ai"
)

// Provider identifiers used throughout the CLI and the tool surface.
const (
	Claude = "claude"
	Codex  = "codex"
	Gemini = "gemini"
)

// Providers lists every provider, claude first.
var Providers = []string{Claude, Codex, Gemini}

// Known reports whether provider is one of Providers.
func Known(provider string) bool {
	return slices.Contains(Providers, provider)
}

// DefaultModel returns the model a provider runs when nothing is
// configured. Unknown providers yield "".
func DefaultModel(provider string) string {
	b, ok := ai.BackendByName(provider)
	if !ok {
		return ""
	}
	return b.DefaultModel()
}

// External reports whether provider is reached through a separate model
// CLI rather than the host assistant itself.
func External(provider string) bool {
	return provider == Codex || provider == Gemini
}
