package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodexForgeBR/ccg/internal/state"
)

func TestParseTasks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantTeam string
		wantIDs  []string
		wantErr  bool
	}{
		{
			name: "mapping",
			input: `team: shop
tasks:
  - id: t1
    title: Cart UI
    domain: frontend
  - id: t2
    title: Cart API
    domain: backend
    dependencies: [t1]
`,
			wantTeam: "shop",
			wantIDs:  []string{"t1", "t2"},
		},
		{
			name:    "bare list",
			input:   "- id: a\n  title: A\n",
			wantIDs: []string{"a"},
		},
		{
			name:     "json",
			input:    `{"team": "core", "tasks": [{"id": "x", "title": "X"}]}`,
			wantTeam: "core",
			wantIDs:  []string{"x"},
		},
		{name: "empty", input: "  \n", wantErr: true},
		{name: "scalar", input: "hello", wantErr: true},
		{name: "no tasks", input: "team: shop\n", wantErr: true},
		{name: "broken", input: "tasks: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			team, tasks, err := ParseTasks([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTeam, team)
			ids := make([]string, len(tasks))
			for i, task := range tasks {
				ids[i] = task.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestLoadTasks_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- id: t1\n  title: T\n  domain: backend\n  status: completed\n"), 0o644))

	_, tasks, err := LoadTasks(path)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, state.DomainBackend, tasks[0].Domain)
	assert.Equal(t, state.TaskCompleted, tasks[0].Status)

	_, _, err = LoadTasks(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
