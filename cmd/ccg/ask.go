package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/ccg/internal/ai"
	"github.com/CodexForgeBR/ccg/internal/banner"
	"github.com/CodexForgeBR/ccg/internal/model"
	"github.com/CodexForgeBR/ccg/internal/tools"
)

var defaultRoles = map[string]string{
	model.Codex:  "architect",
	model.Gemini: "designer",
	model.Claude: "executor",
}

func newAskCmd(env *environment) *cobra.Command {
	var (
		role    string
		modelID string
		files   []string
		workDir string
		wait    time.Duration
		quiet   bool
	)
	cmd := &cobra.Command{
		Use:   "ask <codex|gemini|claude> [prompt...]",
		Short: "Ask a model and print its answer",
		Long: "Runs the prompt as a job and waits for it. The prompt is the remaining\n" +
			"arguments, or stdin when none are given. The job summary goes to stderr and\n" +
			"the answer to stdout. Exits 2 when the job fails and 3 when the wait times out.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := args[0]
			if !model.Known(provider) {
				return fmt.Errorf("unknown provider %q: want codex, gemini or claude", provider)
			}
			if err := tools.CheckModel(provider, modelID, "--model"); err != nil {
				return err
			}

			prompt := strings.Join(args[1:], " ")
			if prompt == "" {
				var err error
				if prompt, err = readStdin(cmd); err != nil {
					return err
				}
			}
			if prompt == "" {
				return fmt.Errorf("no prompt given")
			}
			if role == "" {
				role = defaultRoles[provider]
			}
			if workDir == "" {
				workDir = env.workDir
			}

			env.wire()
			if !env.enabled[provider] {
				return fmt.Errorf("provider %s is not enabled", provider)
			}
			job, err := env.registry.Dispatch(provider, ai.Request{
				Prompt:  prompt,
				Role:    role,
				Files:   files,
				WorkDir: workDir,
				Model:   modelID,
			})
			if err != nil {
				return err
			}

			timeout := wait
			if timeout == 0 {
				b, _ := env.cfg.Backend(provider)
				timeout = b.Timeout()
			}
			job, err = env.registry.Wait(cmd.Context(), job.ID, timeout)
			if err != nil {
				return err
			}

			if !quiet {
				shown := job
				shown.Result = ""
				banner.PrintJobBanner(cmd.ErrOrStderr(), shown)
			}
			if job.Result != "" {
				fmt.Fprintln(cmd.OutOrStdout(), job.Result)
			}
			return jobExit(job)
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Agent role (default: architect, designer or executor)")
	cmd.Flags().StringVar(&modelID, "model", "", "Model override")
	cmd.Flags().StringSliceVar(&files, "file", nil, "File to include as context (repeatable)")
	cmd.Flags().StringVar(&workDir, "workdir", "", "Working directory for the model CLI")
	cmd.Flags().DurationVar(&wait, "wait", 0, "How long to wait for the answer (default: the backend timeout)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the job summary")
	return cmd
}
