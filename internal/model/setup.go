package model

// Resolve picks the model for provider. An explicit request wins over the
// configured model, which wins over the provider default.
func Resolve(provider, requested, configured string) string {
	if requested != "" {
		return requested
	}
	if configured != "" {
		return configured
	}
	return DefaultModel(provider)
}

// CrossProviders returns the external providers used for a cross-validation
// pass, in codex, gemini order, keeping only the enabled ones.
func CrossProviders(codexEnabled, geminiEnabled bool) []string {
	var out []string
	if codexEnabled {
		out = append(out, Codex)
	}
	if geminiEnabled {
		out = append(out, Gemini)
	}
	return out
}
