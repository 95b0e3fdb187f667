package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FindObject returns the first JSON object in text that has field at its top
// level. Fenced ```json blocks are tried before objects embedded in prose.
//
// It returns (nil, nil) when field is not mentioned at all, and an error when
// field is mentioned but no object holding it decodes.
func FindObject(text, field string) (map[string]any, error) {
	quoted := `"` + field + `"`
	if !strings.Contains(text, quoted) {
		return nil, nil
	}

	var lastErr error
	for _, block := range fencedBlocks(text) {
		if !strings.Contains(block, quoted) {
			continue
		}
		obj, err := decodeObject(strings.TrimSpace(block))
		if err == nil && hasField(obj, field) {
			return obj, nil
		}
		if err != nil {
			lastErr = fmt.Errorf("json block: %w", err)
		}
	}

	for i := strings.IndexByte(text, '{'); i >= 0; {
		obj, err := decodeObject(text[i:])
		if err == nil && hasField(obj, field) {
			return obj, nil
		}
		if err != nil {
			lastErr = err
		}
		next := strings.IndexByte(text[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}

	if lastErr == nil {
		lastErr = errors.New("no object holds the field")
	}
	return nil, fmt.Errorf("find %s object: %w", quoted, lastErr)
}

// fencedBlocks returns the bodies of the ```json fences in text, in order.
func fencedBlocks(text string) []string {
	const open, fence = "```json", "```"
	var blocks []string
	for {
		start := strings.Index(text, open)
		if start < 0 {
			return blocks
		}
		text = text[start+len(open):]
		end := strings.Index(text, fence)
		if end < 0 {
			return blocks
		}
		blocks = append(blocks, text[:end])
		text = text[end+len(fence):]
	}
}

// decodeObject decodes the object at the start of s and ignores whatever
// follows it.
func decodeObject(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.NewDecoder(strings.NewReader(s)).Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func hasField(obj map[string]any, field string) bool {
	_, ok := obj[field]
	return ok
}
