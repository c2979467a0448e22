package main

import (
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-optipath/pkg/viewer"
)

func newViewCmd(g *globalFlags) *cobra.Command {
	src := &sourceFlags{}

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse a saved run in the terminal",
		Long: `View opens an interactive table of a saved run. Press u to show only
UNREACHABLE paths and q to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd, sourceBindings)
			if err != nil {
				return err
			}

			s, err := openSource(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr(), cfg))
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := loadRun(cmd.Context(), s, src.runID)
			if err != nil {
				return err
			}
			return viewer.Run(viewer.New(run.Run, run.Results))
		},
	}

	src.register(cmd)
	return cmd
}
