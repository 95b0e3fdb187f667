package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/ccg/internal/logging"
	"github.com/CodexForgeBR/ccg/internal/server"
)

func newServeCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools as an MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env.wire()
			logging.Debugf("serving %d tools from %s", len(env.tools.Tools()), env.workDir)

			srv := server.New(env.tools, server.Info{Name: "oh-my-ccg-tools", Version: version})
			err := server.Serve(cmd.Context(), srv, os.Stdin, cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
