package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/CodexForgeBR/ccg/internal/state"
)

type taskFile struct {
	Team  string           `yaml:"team"`
	Tasks []state.TeamTask `yaml:"tasks"`
}

// LoadTasks reads a team task file. The file is YAML (JSON being a subset)
// and holds either a bare task list or a mapping with "team" and "tasks".
// The team name is empty for a bare list.
func LoadTasks(path string) (team string, tasks []state.TeamTask, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read tasks: %w", err)
	}
	return ParseTasks(data)
}

// ParseTasks is LoadTasks on file contents.
func ParseTasks(data []byte) (string, []state.TeamTask, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "", nil, fmt.Errorf("parse tasks: empty file")
	}

	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return "", nil, fmt.Errorf("parse tasks: %w", err)
	}
	if len(node.Content) == 0 {
		return "", nil, fmt.Errorf("parse tasks: empty document")
	}

	var f taskFile
	switch root := node.Content[0]; root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&f.Tasks); err != nil {
			return "", nil, fmt.Errorf("parse tasks: %w", err)
		}
	case yaml.MappingNode:
		if err := root.Decode(&f); err != nil {
			return "", nil, fmt.Errorf("parse tasks: %w", err)
		}
	default:
		return "", nil, fmt.Errorf("parse tasks: want a list or a mapping with tasks")
	}
	if len(f.Tasks) == 0 {
		return "", nil, fmt.Errorf("parse tasks: no tasks")
	}
	return f.Team, f.Tasks, nil
}
