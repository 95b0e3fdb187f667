// Package parser extracts the final answer from model CLI output and pulls
// structured verdicts out of free-form text.
package parser

import "strings"

// Format is the output framing of a model CLI.
type Format string

const (
	// FormatText is plain text; the whole trimmed output is the answer.
	FormatText Format = "text"
	// FormatCodexJSONL is `codex exec --json` event output.
	FormatCodexJSONL Format = "codex-jsonl"
	// FormatStreamJSON is Claude CLI `--output-format stream-json` output.
	FormatStreamJSON Format = "stream-json"
)

// LastMessage extracts the last assistant message from output. When no
// message event can be found the raw trimmed output is returned.
func LastMessage(format Format, output string) string {
	var (
		msg string
		ok  bool
	)
	switch format {
	case FormatCodexJSONL:
		msg, ok = LastCodexMessage(output)
	case FormatStreamJSON:
		msg, ok = LastStreamMessage(output)
	}
	if ok {
		return strings.TrimSpace(msg)
	}
	return strings.TrimSpace(output)
}
