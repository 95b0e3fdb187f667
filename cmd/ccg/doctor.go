package main

import (
	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/ccg/internal/ai"
	"github.com/CodexForgeBR/ccg/internal/banner"
	"github.com/CodexForgeBR/ccg/internal/exitcode"
	"github.com/CodexForgeBR/ccg/internal/model"
)

type doctorCheck struct {
	Provider  string `json:"provider"`
	Binary    string `json:"binary"`
	Path      string `json:"path,omitempty"`
	Model     string `json:"model"`
	Available bool   `json:"available"`
	Enabled   bool   `json:"enabled"`
}

func newDoctorCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check which model CLIs are installed",
		Long:  "Checks every backend CLI on PATH. Exits 1 when claude is missing.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, available := env.providerStates()

			checks := make([]doctorCheck, 0, len(model.Providers))
			rows := make([]banner.Check, 0, len(model.Providers))
			for _, p := range model.Providers {
				b, _ := env.cfg.Backend(p)
				c := doctorCheck{
					Provider:  p,
					Binary:    env.binary(p),
					Model:     model.Resolve(p, "", b.Model),
					Available: available[p],
					Enabled:   enabled[p],
				}
				c.Path, _ = ai.Locate(c.Binary)
				checks = append(checks, c)
				rows = append(rows, banner.Check{Provider: p, Binary: c.Binary, Available: c.Available, Enabled: c.Enabled})
			}

			if cmd.Flags().Changed("output") {
				if err := env.render(cmd, checks); err != nil {
					return err
				}
			} else {
				banner.PrintDoctorBanner(cmd.OutOrStdout(), rows)
			}

			if !available[model.Claude] {
				return &exitError{code: exitcode.Error}
			}
			return nil
		},
	}
}
