package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newAutopilotCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autopilot",
		Short: "Walk a change through every RPI phase",
	}

	var withRalph, withTeam bool
	start := &cobra.Command{
		Use:   "start <requirement...>",
		Short: "Start autopilot",
		Long:  "Starts autopilot. --ralph and/or --team start a composite run that hands\nimplementation to a Ralph loop or a team.",
		Args:  cobra.MinimumNArgs(1),
		RunE: env.toolRunner("autopilot_start", func(args []string) (map[string]any, error) {
			return map[string]any{
				"requirement":  strings.Join(args, " "),
				"composite":    withRalph || withTeam,
				"linked_ralph": withRalph,
				"linked_team":  withTeam,
			}, nil
		}),
	}
	start.Flags().BoolVar(&withRalph, "ralph", false, "Implement inside a Ralph loop")
	start.Flags().BoolVar(&withTeam, "team", false, "Implement with a team")

	var threshold int
	contextCmd := &cobra.Command{
		Use:   "context <percent>",
		Short: "Check context window usage",
		Args:  cobra.ExactArgs(1),
		RunE: env.toolRunner("autopilot_check_context", func(args []string) (map[string]any, error) {
			p, err := strconv.Atoi(strings.TrimSuffix(args[0], "%"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"percent": p, "threshold": threshold}, nil
		}),
	}
	contextCmd.Flags().IntVar(&threshold, "threshold", 0, "Threshold percent (default from config)")

	cmd.AddCommand(
		start,
		&cobra.Command{
			Use:   "advance",
			Short: "Advance to the next phase and print its instructions",
			Args:  cobra.NoArgs,
			RunE:  env.toolRunner("autopilot_advance", nil),
		},
		&cobra.Command{
			Use:   "instructions [phase]",
			Short: "Instructions for a phase (default: the current one)",
			Args:  cobra.MaximumNArgs(1),
			RunE: env.toolRunner("autopilot_instructions", func(args []string) (map[string]any, error) {
				if len(args) == 0 {
					return nil, nil
				}
				return map[string]any{"phase": args[0]}, nil
			}),
		},
		&cobra.Command{
			Use:   "action <text...>",
			Short: "Record the current action of a composite run",
			Args:  cobra.MinimumNArgs(1),
			RunE: env.toolRunner("autopilot_set_action", func(args []string) (map[string]any, error) {
				return map[string]any{"action": strings.Join(args, " ")}, nil
			}),
		},
		&cobra.Command{
			Use:   "phase-done <phase>",
			Short: "Mark a phase completed on a composite run",
			Args:  cobra.ExactArgs(1),
			RunE: env.toolRunner("autopilot_record_phase", func(args []string) (map[string]any, error) {
				return map[string]any{"phase": args[0]}, nil
			}),
		},
		contextCmd,
		statusCmd(env, "autopilot_status"),
		cancelCmd(env, "autopilot_cancel"),
	)
	return cmd
}
