package main

import (
	"github.com/spf13/cobra"
)

func newRouteCmd(env *environment) *cobra.Command {
	var (
		role  string
		cross bool
		agent string
	)
	cmd := &cobra.Command{
		Use:   "route [domain]",
		Short: "Show where a task would be routed",
		Long:  "Routes a task of the given domain (frontend, backend, fullstack, general),\nor the named agent with --agent.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if agent != "" {
				return env.runTool(cmd, "route_agent", map[string]any{"agent": agent})
			}
			a := map[string]any{"agent_role": role, "cross_validation": cross}
			if len(args) == 1 {
				a["domain"] = args[0]
			}
			return env.runTool(cmd, "route_task", a)
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role override")
	cmd.Flags().BoolVar(&cross, "cross", false, "Fan out to every enabled external provider")
	cmd.Flags().StringVar(&agent, "agent", "", "Route a named agent instead of a domain")
	return cmd
}
