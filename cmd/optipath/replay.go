package main

import (
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-optipath/pkg/logging"
	"github.com/dd0wney/cluso-optipath/pkg/report"
)

func newReplayCmd(g *globalFlags) *cobra.Command {
	src := &sourceFlags{}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the report of a saved run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindings := map[string]string{
				"output.path":   "output",
				"output.format": "format",
			}
			for k, v := range sourceBindings {
				bindings[k] = v
			}
			cfg, err := g.loadConfig(cmd, bindings)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg)

			format, err := cfg.ReportFormat()
			if err != nil {
				return err
			}

			s, err := openSource(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := loadRun(cmd.Context(), s, src.runID)
			if err != nil {
				return err
			}
			logger.Info("replaying run", logging.RunID(run.Run.ID), logging.Count(len(run.Results)))

			if cfg.Output.Path == "" {
				return report.Write(cmd.OutOrStdout(), format, run.Run, run.Results)
			}
			return report.WriteFile(cfg.Output.Path, format, run.Run, run.Results)
		},
	}

	src.register(cmd)
	cmd.Flags().StringP("output", "o", "", "Report file (default: stdout)")
	cmd.Flags().StringP("format", "f", "", "Report format: csv, json, yaml (default: from --output extension, else csv)")
	return cmd
}
