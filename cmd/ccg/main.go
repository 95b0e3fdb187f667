package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/ccg/internal/cli"
	"github.com/CodexForgeBR/ccg/internal/config"
	"github.com/CodexForgeBR/ccg/internal/logging"
	sighandler "github.com/CodexForgeBR/ccg/internal/signal"
)

// version vars injected via ldflags at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sighandler.SetupSignalHandler(ctx, cancel, func() {
		logging.Warn("Interrupted, stopping running jobs...")
	})

	env := &environment{}
	err := newRootCmd(env).ExecuteContext(ctx)
	env.close()
	code := exitCode(ctx, err)
	if err != nil && !isSilent(err) {
		fmt.Fprintln(os.Stderr, err)
	}
	cancel()
	os.Exit(code)
}

func newRootCmd(env *environment) *cobra.Command {
	flagCfg := config.NewDefaultConfig()

	root := &cobra.Command{
		Use:     "ccg",
		Short:   "Claude/Codex/Gemini orchestration: background jobs, RPI workflow and modes",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.ValidateFlags(cmd, flagCfg); err != nil {
				return err
			}
			return env.load(cmd, flagCfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cli.BindFlags(root, flagCfg)
	cli.SetCustomHelp(root)

	root.AddCommand(
		newServeCmd(env),
		newCallCmd(env),
		newAskCmd(env),
		newRPICmd(env),
		newRalphCmd(env),
		newTeamCmd(env),
		newAutopilotCmd(env),
		newRouteCmd(env),
		newStatusCmd(env),
		newHookCmd(),
		newDoctorCmd(env),
	)
	return root
}
