package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/ccg/internal/rpi"
)

func newRPICmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rpi",
		Short: "Inspect or change the research → plan → impl → review state",
	}

	var summary bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the RPI state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if summary {
				store, err := env.store()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), rpi.NewEngine(store).Summary())
				return nil
			}
			return env.runTool(cmd, "rpi_state_read", nil)
		},
	}
	show.Flags().BoolVar(&summary, "summary", false, "Print the short text summary")

	var reason, changeName string
	transition := &cobra.Command{
		Use:   "transition <research|plan|impl|review>",
		Short: "Move to another phase",
		Args:  cobra.ExactArgs(1),
		RunE: env.toolRunner("rpi_state_write", func(args []string) (map[string]any, error) {
			return map[string]any{"action": "transition", "phase": args[0], "reason": reason, "change_name": changeName}, nil
		}),
	}
	transition.Flags().StringVar(&reason, "reason", "", "Reason recorded in the history")
	transition.Flags().StringVar(&changeName, "change-name", "", "Change name (entering research)")

	var source string
	constraint := &cobra.Command{
		Use:   "constraint <hard|soft> <description>",
		Short: "Record a constraint",
		Args:  cobra.ExactArgs(2),
		RunE: env.toolRunner("rpi_state_write", func(args []string) (map[string]any, error) {
			return map[string]any{"action": "constraint", "type": args[0], "description": args[1], "source": source}, nil
		}),
	}
	constraint.Flags().StringVar(&source, "source", "user", "Who found it: user, codex, gemini or claude")

	var pbtDesc, invariant string
	var related []string
	pbt := &cobra.Command{
		Use:   "pbt <name>",
		Short: "Record a property-based-test invariant",
		Args:  cobra.ExactArgs(1),
		RunE: env.toolRunner("rpi_state_write", func(args []string) (map[string]any, error) {
			return map[string]any{
				"action": "pbt", "name": args[0], "description": pbtDesc,
				"invariant": invariant, "related_constraints": related,
			}, nil
		}),
	}
	pbt.Flags().StringVar(&pbtDesc, "description", "", "Description")
	pbt.Flags().StringVar(&invariant, "invariant", "", "Invariant")
	pbt.Flags().StringSliceVar(&related, "related", nil, "Related constraint ids")

	cmd.AddCommand(
		show,
		&cobra.Command{
			Use:   "init [change-name]",
			Short: "Create the state if none exists",
			Args:  cobra.MaximumNArgs(1),
			RunE: env.toolRunner("rpi_state_write", func(args []string) (map[string]any, error) {
				a := map[string]any{"action": "init"}
				if len(args) == 1 {
					a["change_name"] = args[0]
				}
				return a, nil
			}),
		},
		transition,
		constraint,
		&cobra.Command{
			Use:   "verify <constraint-id>",
			Short: "Mark a constraint verified",
			Args:  cobra.ExactArgs(1),
			RunE: env.toolRunner("rpi_state_write", func(args []string) (map[string]any, error) {
				return map[string]any{"action": "verify_constraint", "id": args[0]}, nil
			}),
		},
		&cobra.Command{
			Use:   "decision <key> <value>",
			Short: "Record a decision",
			Args:  cobra.ExactArgs(2),
			RunE: env.toolRunner("rpi_state_write", func(args []string) (map[string]any, error) {
				return map[string]any{"action": "decision", "key": args[0], "value": args[1]}, nil
			}),
		},
		pbt,
		&cobra.Command{
			Use:   "artifact <proposal|spec|design|tasks> <path>",
			Short: "Record an artifact path",
			Args:  cobra.ExactArgs(2),
			RunE: env.toolRunner("rpi_state_write", func(args []string) (map[string]any, error) {
				return map[string]any{"action": "artifact", "kind": args[0], "path": args[1]}, nil
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Delete the RPI state",
			Args:  cobra.NoArgs,
			RunE: env.toolRunner("rpi_state_write", func([]string) (map[string]any, error) {
				return map[string]any{"action": "reset"}, nil
			}),
		},
	)
	return cmd
}
