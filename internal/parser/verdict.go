package parser

import (
	"fmt"
)

// Verdict is a verification outcome reported by a verifier model.
type Verdict struct {
	Passed bool
	Tests  bool
	Build  bool
	LSP    bool
	Issues []string
}

// ParseVerdict finds the JSON object anchored on "passed" in a verifier's
// answer. Missing check fields default to the overall passed value.
func ParseVerdict(text string) (*Verdict, error) {
	obj, err := FindObject(text, "passed")
	if err != nil {
		return nil, fmt.Errorf("parse verdict: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("parse verdict: no verdict object found")
	}

	passed, ok := obj["passed"].(bool)
	if !ok {
		return nil, fmt.Errorf("parse verdict: \"passed\" must be a boolean")
	}

	v := &Verdict{
		Passed: passed,
		Tests:  boolField(obj, "tests", passed),
		Build:  boolField(obj, "build", passed),
		LSP:    boolField(obj, "lsp", passed),
		Issues: []string{},
	}
	if raw, ok := obj["issues"].([]any); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok && s != "" {
				v.Issues = append(v.Issues, s)
			}
		}
	}
	return v, nil
}

func boolField(obj map[string]any, key string, fallback bool) bool {
	if b, ok := obj[key].(bool); ok {
		return b
	}
	return fallback
}
