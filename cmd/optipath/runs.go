package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newRunsCmd(g *globalFlags) *cobra.Command {
	src := &sourceFlags{}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List saved runs, newest first",
		Args:  cobra.NoArgs,
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

			runs, err := s.ListRuns(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSTARTED\tTHRESHOLD_KM\tPATHS\tOK\tUNREACHABLE\tINPUT")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\t%d\t%d\t%s\n",
					r.Run.ID,
					r.Run.StartedAt.Format(time.RFC3339),
					r.Run.ReachThresholdKm,
					r.Summary.Paths,
					r.Summary.OK,
					r.Summary.Unreachable,
					r.Run.Input,
				)
			}
			return tw.Flush()
		},
	}

	src.register(cmd)
	return cmd
}
