package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/ccg/internal/jobs"
	"github.com/CodexForgeBR/ccg/internal/logging"
)

// invoke runs a tool with args and returns its result.
func (e *environment) invoke(cmd *cobra.Command, name string, args map[string]any) (any, error) {
	e.wire()
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}
	return e.tools.Invoke(cmd.Context(), name, raw)
}

// runTool runs a tool and prints the result.
func (e *environment) runTool(cmd *cobra.Command, name string, args map[string]any) error {
	out, err := e.invoke(cmd, name, args)
	if err != nil {
		return err
	}
	return e.render(cmd, out)
}

// toolRunner adapts a function building tool arguments into a RunE.
func (e *environment) toolRunner(name string, build func(args []string) (map[string]any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var a map[string]any
		if build != nil {
			var err error
			if a, err = build(args); err != nil {
				return err
			}
		}
		return e.runTool(cmd, name, a)
	}
}

// drain waits for the background jobs still running so a short-lived CLI
// process does not kill them on exit.
func (e *environment) drain(cmd *cobra.Command) []jobs.Job {
	if e.registry == nil {
		return nil
	}
	active, err := e.registry.List(jobs.FilterActive, jobs.MaxListLimit)
	if err != nil || len(active) == 0 {
		return nil
	}
	logging.Infof("Waiting for %d background job(s)...", len(active))

	done := make([]jobs.Job, 0, len(active))
	for _, j := range active {
		b, _ := e.cfg.Backend(j.Provider)
		job, err := e.registry.Wait(cmd.Context(), j.ID, b.Timeout())
		if err != nil {
			logging.Warnf("job %s: %v", j.ID, err)
			continue
		}
		done = append(done, job)
	}
	return done
}

func newCallCmd(env *environment) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "call <tool> [json-args|-]",
		Short: "Run one tool and print its result",
		Long: "Run one tool of the stdio server and print its result. Arguments are a JSON\n" +
			"object given inline, or read from stdin with \"-\". Background jobs started by\n" +
			"the tool are waited for before the command exits.",
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.RangeArgs(1, 2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			env.wire()
			if list {
				names := make([]string, 0, len(env.tools.Tools()))
				for _, t := range env.tools.Tools() {
					names = append(names, t.Name)
				}
				return env.render(cmd, names)
			}

			raw := json.RawMessage("{}")
			if len(args) == 2 {
				text := args[1]
				if text == "-" {
					data, err := io.ReadAll(cmd.InOrStdin())
					if err != nil {
						return fmt.Errorf("read arguments: %w", err)
					}
					text = string(data)
				}
				if !json.Valid([]byte(strings.TrimSpace(text))) {
					return fmt.Errorf("arguments are not valid JSON")
				}
				raw = json.RawMessage(text)
			}

			out, err := env.tools.Invoke(cmd.Context(), args[0], raw)
			if err != nil {
				return err
			}
			if err := env.render(cmd, out); err != nil {
				return err
			}
			for _, job := range env.drain(cmd) {
				logging.Infof("job %s: %s", job.ID, job.Status)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List the tool names")
	return cmd
}

// readStdin returns stdin when it is piped, for commands that accept input
// either as an argument or on stdin.
func readStdin(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
