package model

import (
	"fmt"
	"regexp"
	"strings"
)

// codexModelRe matches OpenAI-family model prefixes: o1, o3, gpt-*, etc.
var codexModelRe = regexp.MustCompile(`^(o[0-9]|gpt|chatgpt|text|ft|codex)`)

// claudeModelHints are lower-cased prefixes that strongly indicate a
// Claude-compatible model.
var claudeModelHints = []string{"opus", "sonnet", "haiku", "claude-"}

// Validate checks whether model is compatible with provider. label names
// the flag or argument being validated and is used in error messages.
//
// An empty model is always allowed. A model that clearly belongs to another
// provider family is rejected; anything else is accepted without opinion.
func Validate(provider, model, label string) error {
	if !Known(provider) {
		return fmt.Errorf("unknown provider %q", provider)
	}
	if model == "" {
		return nil
	}

	family := Family(model)
	if family != "" && family != provider {
		return fmt.Errorf("%s %q looks like a %s model but provider=%s", label, model, family, provider)
	}
	return nil
}

// Family guesses the provider a model name belongs to, or "" when the name
// gives no hint.
func Family(model string) string {
	switch {
	case IsClaudeModelHint(model):
		return Claude
	case IsCodexModelHint(model):
		return Codex
	case IsGeminiModelHint(model):
		return Gemini
	}
	return ""
}

// IsClaudeModelHint returns true when model appears to target a Claude
// backend (opus, sonnet, haiku, or claude-* prefix).
func IsClaudeModelHint(model string) bool {
	lower := strings.ToLower(model)
	for _, hint := range claudeModelHints {
		if strings.HasPrefix(lower, hint) {
			return true
		}
	}
	return false
}

// IsCodexModelHint returns true when model appears to target an
// OpenAI / Codex backend (o1, o3, gpt-*, chatgpt-*, etc.).
func IsCodexModelHint(model string) bool {
	return codexModelRe.MatchString(strings.ToLower(model))
}

func IsGeminiModelHint(model string) bool {
	return strings.HasPrefix(strings.ToLower(model), "gemini")
}
