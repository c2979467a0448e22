package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-optipath/pkg/config"
	"github.com/dd0wney/cluso-optipath/pkg/journal"
	"github.com/dd0wney/cluso-optipath/pkg/logging"
	"github.com/dd0wney/cluso-optipath/pkg/store"
)

// ErrNoSource is returned when a read command has neither a journal nor a database.
var ErrNoSource = errors.New("set --journal or --postgres to choose where runs are read from")

// sourceFlags select a saved run.
type sourceFlags struct {
	runID string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().String("journal", "", "Read runs from the journal in this directory")
	cmd.Flags().String("postgres", "", "Read runs from this PostgreSQL URL")
	cmd.Flags().StringVar(&s.runID, "run", "", "Run id (default: the most recent run)")
}

var sourceBindings = map[string]string{
	"journal.dir":  "journal",
	"postgres.url": "postgres",
}

// openSource opens the store runs are read from. The journal wins when both
// are configured.
func openSource(ctx context.Context, cfg *config.Config, logger logging.Logger) (store.ResultStore, error) {
	switch {
	case cfg.Journal.Dir != "":
		path := filepath.Join(cfg.Journal.Dir, journal.FileName)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("no journal at %s: %w", cfg.Journal.Dir, err)
		}
		return store.OpenJournalStore(cfg.Journal.Dir, logger)
	case cfg.Postgres.URL != "":
		return store.NewPGStore(ctx, cfg.Postgres.URL, cfg.Postgres.MaxConns)
	default:
		return nil, ErrNoSource
	}
}

// loadRun fetches id, or the newest run when id is empty.
func loadRun(ctx context.Context, s store.ResultStore, id string) (*store.StoredRun, error) {
	if id == "" {
		runs, err := s.ListRuns(ctx)
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			return nil, journal.ErrNoRuns
		}
		id = runs[0].Run.ID
	}
	return s.GetRun(ctx, id)
}
