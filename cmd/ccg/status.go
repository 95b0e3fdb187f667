package main

import (
	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/ccg/internal/banner"
	"github.com/CodexForgeBR/ccg/internal/tools"
)

func newStatusCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Active modes and summaries",
		Long:  "Shows the active modes with the RPI, Ralph, Team and Autopilot summaries.\nPass --output to get the data instead of the banner.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := env.store()
			if err != nil {
				return err
			}
			o := tools.BuildOverview(store, nil)
			if cmd.Flags().Changed("output") {
				return env.render(cmd, o)
			}

			sections := []banner.Section{{Title: "RPI", Body: o.RPI}}
			for _, s := range []banner.Section{
				{Title: "Ralph", Body: o.Ralph},
				{Title: "Team", Body: o.Team},
				{Title: "Autopilot", Body: o.Autopilot},
			} {
				if s.Body != "" {
					sections = append(sections, s)
				}
			}
			banner.PrintStatusBanner(cmd.OutOrStdout(), store.Dir(), o.ActiveModes, sections)
			return nil
		},
	}
}
