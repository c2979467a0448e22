package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-optipath/pkg/config"
	"github.com/dd0wney/cluso-optipath/pkg/logging"
	"github.com/dd0wney/cluso-optipath/pkg/metrics"
	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
	"github.com/dd0wney/cluso-optipath/pkg/report"
	"github.com/dd0wney/cluso-optipath/pkg/simon"
	"github.com/dd0wney/cluso-optipath/pkg/store"
)

// ErrNoRecords is returned when the input holds no usable path.
var ErrNoRecords = errors.New("no path records parsed")

type analyzeFlags struct {
	input string
}

func newAnalyzeCmd(g *globalFlags) *cobra.Command {
	f := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze --input FILE",
		Short: "Analyze every path in a simulator listing",
		Long: `Analyze parses a Simon path listing, places regenerators and OPCs on every
path and writes one result row per path. Unparseable lines are skipped with a
warning. Results can also be appended to a journal and saved to PostgreSQL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd, map[string]string{
				"analysis.reach_threshold_km": "threshold",
				"analysis.residual_policy":    "policy",
				"analysis.workers":            "workers",
				"output.path":                 "output",
				"output.format":               "format",
				"journal.dir":                 "journal",
				"postgres.url":                "postgres",
				"metrics.textfile_path":       "metrics-file",
			})
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), cfg, f.input, cmd.OutOrStdout(), newLogger(cmd.ErrOrStderr(), cfg))
		},
	}

	def := config.DefaultConfig()
	flags := cmd.Flags()
	flags.StringVarP(&f.input, "input", "i", "", "Simon path listing to analyze (required)")
	flags.StringP("output", "o", "", "Report file (default: stdout)")
	flags.StringP("format", "f", "", "Report format: csv, json, yaml (default: from --output extension, else csv)")
	flags.Float64P("threshold", "t", def.Analysis.ReachThresholdKm, "Reach threshold in km")
	flags.String("policy", def.Analysis.ResidualPolicy, "Residual policy: canonical, skip-compensated-tail")
	flags.IntP("workers", "w", def.Analysis.Workers, "Paths analyzed concurrently")
	flags.String("journal", "", "Append the run to the journal in this directory")
	flags.String("postgres", "", "Save the run to this PostgreSQL URL")
	flags.String("metrics-file", "", "Write Prometheus metrics to this textfile")
	cmd.MarkFlagRequired("input")

	return cmd
}

// runAnalyze is the analyze pipeline: parse, analyze, report, then persist.
func runAnalyze(ctx context.Context, cfg *config.Config, input string, stdout io.Writer, logger logging.Logger) (err error) {
	start := time.Now()
	reg := metrics.NewRegistry()
	reg.SetReachThreshold(cfg.Analysis.ReachThresholdKm)
	defer func() {
		reg.RecordBatch(time.Since(start), err)
		if cfg.Metrics.TextfilePath == "" {
			return
		}
		if werr := reg.WriteTextfile(cfg.Metrics.TextfilePath); werr != nil {
			logger.Error("failed to write metrics", logging.Error(werr))
			err = errors.Join(err, werr)
		}
	}()

	format, err := cfg.ReportFormat()
	if err != nil {
		return err
	}

	parsed, err := simon.NewParser(logger).ParseFile(input)
	if err != nil {
		return err
	}
	reg.RecordParse(len(parsed.Records), parsed.ErrorsByReason())
	if len(parsed.Records) == 0 {
		return fmt.Errorf("%w from %s (%d lines rejected)", ErrNoRecords, input, len(parsed.Errors))
	}

	opts, err := cfg.AnalyzerOptions(logger, reg)
	if err != nil {
		return err
	}
	analyzer, err := pathanalysis.New(opts...)
	if err != nil {
		return err
	}

	run := report.NewRun(input, analyzer.ReachThreshold(), analyzer.Policy())
	log := logger.With(logging.RunID(run.ID))
	log.Info("analysis started",
		logging.Path(input),
		logging.Count(len(parsed.Records)),
		logging.Threshold(analyzer.ReachThreshold()),
		logging.Int("workers", cfg.Analysis.Workers),
	)

	results, err := analyzer.AnalyzeAll(ctx, parsed.Records)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if cfg.Output.Path == "" {
		err = report.Write(stdout, format, run, results)
	} else {
		err = report.WriteFile(cfg.Output.Path, format, run, results)
	}
	if err != nil {
		return err
	}

	sinkErr := saveToSinks(ctx, cfg, run, results, reg, log)

	sum := pathanalysis.Summarize(results)
	log.Info("analysis complete",
		logging.Count(sum.Paths),
		logging.Int("ok", sum.OK),
		logging.Int("unreachable", sum.Unreachable),
		logging.Int("regenerators", sum.Regenerators),
		logging.Int("opcs", sum.OPCs),
		logging.Int("rejected_lines", len(parsed.Errors)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return sinkErr
}

// saveToSinks persists the run to every configured store. Every sink is
// attempted even if an earlier one fails.
func saveToSinks(ctx context.Context, cfg *config.Config, run report.Run, results []pathanalysis.AnalysisResult,
	reg *metrics.Registry, log logging.Logger) error {

	var errs []error
	save := func(name string, open func() (store.ResultStore, error)) {
		timer := logging.StartTimer(log, "save run", logging.Sink(name), logging.Count(len(results)))
		err := func() error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()
			return s.SaveRun(ctx, run, results)
		}()
		if err != nil {
			reg.RecordSinkWrite(name, err, timer.EndError(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		reg.RecordSinkWrite(name, nil, timer.End())
	}

	if cfg.Journal.Dir != "" {
		save("journal", func() (store.ResultStore, error) {
			return store.OpenJournalStore(cfg.Journal.Dir, log)
		})
	}
	if cfg.Postgres.URL != "" {
		save("postgres", func() (store.ResultStore, error) {
			return store.NewPGStore(ctx, cfg.Postgres.URL, cfg.Postgres.MaxConns)
		})
	}
	return errors.Join(errs...)
}
