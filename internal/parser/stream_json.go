package parser

import (
	"encoding/json"
	"strings"
)

type streamEvent struct {
	Type    string `json:"type"`
	Result  string `json:"result"`
	Message *struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

// LastStreamMessage returns the final assistant text from Claude CLI
// stream-json output. The text blocks of each assistant event are joined; the
// closing result event, when present, wins because it carries the final
// answer. tool_use blocks and malformed lines are skipped.
func LastStreamMessage(output string) (string, bool) {
	var last string
	found := false

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "assistant":
			if ev.Message == nil {
				continue
			}
			var b strings.Builder
			for _, c := range ev.Message.Content {
				if c.Type == "text" {
					b.WriteString(c.Text)
				}
			}
			if b.Len() > 0 {
				last = b.String()
				found = true
			}
		case "result":
			if ev.Result != "" {
				last = ev.Result
				found = true
			}
		}
	}

	return last, found
}
