package parser

import (
	"encoding/json"
	"strings"
)

// codexEvent is one line of `codex exec --json` output.
type codexEvent struct {
	Type string `json:"type"`
	Item *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"item"`
}

// LastCodexMessage returns the text of the last completed agent message in
// Codex JSONL output. Malformed lines and non-message items are skipped.
func LastCodexMessage(output string) (string, bool) {
	var last string
	found := false

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var ev codexEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		if ev.Type != "item.completed" || ev.Item == nil {
			continue
		}

		switch ev.Item.Type {
		case "agent_message", "assistant_message":
			if ev.Item.Text != "" {
				last = ev.Item.Text
				found = true
			}
		}
	}

	return last, found
}
