package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/ccg/internal/exitcode"
	"github.com/CodexForgeBR/ccg/internal/modes"
	"github.com/CodexForgeBR/ccg/internal/tools"
)

func newRalphCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ralph",
		Short: "Drive the Ralph execute → verify → fix loop",
	}

	var maxIter, totalTasks int
	var teamName string
	start := &cobra.Command{
		Use:   "start",
		Short: "Start a loop",
		Args:  cobra.NoArgs,
		RunE: env.toolRunner("ralph_start", func([]string) (map[string]any, error) {
			return map[string]any{"max_iterations": maxIter, "team_name": teamName, "total_tasks": totalTasks}, nil
		}),
	}
	start.Flags().IntVar(&maxIter, "max-iterations", 0, "Iteration limit (default from config)")
	start.Flags().StringVar(&teamName, "team", "", "Link the loop to this team")
	start.Flags().IntVar(&totalTasks, "total-tasks", 0, "Task count of the linked team")

	var (
		failed            bool
		tests, build, lsp bool
		issues            []string
		jobID             string
	)
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Record a verification result",
		Long: "Records a verification. By default the result is passed; use --failed and the\n" +
			"per-check flags to describe a failure.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobID != "" {
				return env.runTool(cmd, "ralph_record_verification", map[string]any{"job_id": jobID})
			}
			a := map[string]any{"passed": !failed, "issues": issues}
			for name, v := range map[string]bool{"tests": tests, "build": build, "lsp": lsp} {
				if cmd.Flags().Changed(name) {
					a[name] = v
				}
			}
			return env.runTool(cmd, "ralph_record_verification", a)
		},
	}
	verify.Flags().BoolVar(&failed, "failed", false, "Verification failed")
	verify.Flags().BoolVar(&tests, "tests", true, "Tests passed")
	verify.Flags().BoolVar(&build, "build", true, "Build passed")
	verify.Flags().BoolVar(&lsp, "lsp", true, "No diagnostics")
	verify.Flags().StringSliceVar(&issues, "issue", nil, "Open issue (repeatable)")
	verify.Flags().StringVar(&jobID, "job", "", "Take the verdict from a completed job of this process")

	cmd.AddCommand(
		start,
		&cobra.Command{
			Use:   "next",
			Short: "Count one more iteration",
			Args:  cobra.NoArgs,
			RunE:  env.toolRunner("ralph_next_iteration", nil),
		},
		verify,
		&cobra.Command{
			Use:   "continue",
			Short: "Decide whether to run another iteration",
			Long:  "Prints the decision. Exits 0 when the loop should continue and 1 otherwise.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := env.invoke(cmd, "ralph_should_continue", nil)
				if err != nil {
					return err
				}
				if err := env.render(cmd, out); err != nil {
					return err
				}
				if d, ok := out.(modes.Decision); ok && !d.Continue {
					return &exitError{code: exitcode.Error}
				}
				return nil
			},
		},
		statusCmd(env, "ralph_status"),
		cancelCmd(env, "ralph_cancel"),
	)
	return cmd
}

// statusCmd prints the summary of a mode, or its state with --output.
func statusCmd(env *environment, tool string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := env.invoke(cmd, tool, nil)
			if err != nil {
				return err
			}
			if s, ok := out.(tools.Status); ok && !cmd.Flags().Changed("output") {
				fmt.Fprintln(cmd.OutOrStdout(), s.Summary)
				return nil
			}
			return env.render(cmd, out)
		},
	}
}

func cancelCmd(env *environment, tool string) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Deactivate, or delete with --reset",
		Args:  cobra.NoArgs,
		RunE: env.toolRunner(tool, func([]string) (map[string]any, error) {
			return map[string]any{"reset": reset}, nil
		}),
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Delete the document")
	return cmd
}
