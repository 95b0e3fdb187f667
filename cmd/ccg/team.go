package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/ccg/internal/cli"
	"github.com/CodexForgeBR/ccg/internal/jobs"
	"github.com/CodexForgeBR/ccg/internal/logging"
	"github.com/CodexForgeBR/ccg/internal/state"
	"github.com/CodexForgeBR/ccg/internal/tools"
)

func newTeamCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage a team task DAG",
	}

	var name, tasksFile string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a team from a task file",
		Long:  "Creates a team from a YAML or JSON task file holding either a task list\nor {team, tasks}. --name overrides the file's team name.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			team, tasks, err := cli.LoadTasks(tasksFile)
			if err != nil {
				return err
			}
			if name != "" {
				team = name
			}
			if team == "" {
				return fmt.Errorf("team name missing: pass --name or set team in %s", tasksFile)
			}
			return env.runTool(cmd, "team_create", map[string]any{"team_name": team, "tasks": tasks})
		},
	}
	create.Flags().StringVar(&name, "name", "", "Team name")
	create.Flags().StringVar(&tasksFile, "tasks", "", "Task file (YAML or JSON)")
	_ = create.MarkFlagRequired("tasks")

	var providers []string
	dispatch := &cobra.Command{
		Use:   "dispatch",
		Short: "Run ready external tasks and record their outcome",
		Long: "Starts a job for every ready task routed to codex or gemini, waits for the\n" +
			"jobs and marks each task completed or failed. Tasks routed to claude are\n" +
			"listed as remaining.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := env.invoke(cmd, "team_dispatch", map[string]any{"providers": providers})
			if err != nil {
				return err
			}
			d := out.(tools.Dispatch)

			outcomes := map[string]jobs.Job{}
			for _, job := range env.drain(cmd) {
				outcomes[job.ID] = job
			}
			for _, t := range d.Dispatched {
				job, ok := outcomes[t.JobID]
				if !ok {
					continue
				}
				status := state.TaskCompleted
				if job.Status != jobs.StatusCompleted {
					status = state.TaskFailed
					logging.Warnf("task %s: job %s %s: %s", t.TaskID, job.ID, job.Status, job.Error)
				}
				if _, err := env.invoke(cmd, "team_update_task", map[string]any{
					"task_id": t.TaskID, "status": status, "assignee": "job:" + job.ID,
				}); err != nil {
					return err
				}
			}
			return env.render(cmd, d)
		},
	}
	dispatch.Flags().StringSliceVar(&providers, "provider", nil, "Only dispatch to these providers (default: codex, gemini)")

	var assignee string
	update := &cobra.Command{
		Use:   "update <task-id> <pending|in_progress|completed|failed>",
		Short: "Set a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: env.toolRunner("team_update_task", func(args []string) (map[string]any, error) {
			return map[string]any{"task_id": args[0], "status": args[1], "assignee": assignee}, nil
		}),
	}
	update.Flags().StringVar(&assignee, "assignee", "", "Worker owning the task")

	cmd.AddCommand(
		create,
		&cobra.Command{
			Use:   "ready",
			Short: "List ready tasks with their routing",
			Args:  cobra.NoArgs,
			RunE:  env.toolRunner("team_ready", nil),
		},
		dispatch,
		update,
		&cobra.Command{
			Use:   "progress",
			Short: "Task counts per status",
			Args:  cobra.NoArgs,
			RunE:  env.toolRunner("team_progress", nil),
		},
		&cobra.Command{
			Use:   "cleanup",
			Short: "Delete the team",
			Args:  cobra.NoArgs,
			RunE:  env.toolRunner("team_cleanup", nil),
		},
	)
	return cmd
}
