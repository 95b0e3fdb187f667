package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/ccg/internal/hooks"
	"github.com/CodexForgeBR/ccg/internal/state"
)

func newHookCmd() *cobra.Command {
	hook := &cobra.Command{
		Use:   "hook",
		Short: "Answer host assistant hooks",
		// Hooks must answer even when the config is broken.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	}
	hook.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Keep the turn open while Ralph or autopilot is active",
		Long: "Reads the stop hook payload ({\"cwd\": ...}) from stdin and prints the\n" +
			"decision as JSON. Any failure allows the host to stop.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := hooks.Stop(cmd.InOrStdin(), state.NewOSStore)
			return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
		},
	})
	return hook
}
