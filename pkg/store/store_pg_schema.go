package store

import (
	"context"
	"fmt"
)

// pgSchema is applied in order on every open; each statement is idempotent.
// Node ids are stored as BIGINT, so ids above math.MaxInt64 are rejected on
// save (see pgNodeID).
var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS optipath_runs (
		id TEXT PRIMARY KEY,
		input TEXT NOT NULL DEFAULT '',
		reach_threshold_km DOUBLE PRECISION NOT NULL,
		residual_policy TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		saved_at TIMESTAMPTZ NOT NULL,
		summary JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS optipath_results (
		run_id TEXT NOT NULL REFERENCES optipath_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		source_node BIGINT NOT NULL,
		destination_node BIGINT NOT NULL,
		total_distance_km DOUBLE PRECISION NOT NULL,
		regenerators BIGINT[] NOT NULL,
		opcs BIGINT[] NOT NULL,
		residual_distance_km DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		detail JSONB NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_optipath_runs_started_at ON optipath_runs(started_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_optipath_results_status ON optipath_results(run_id, status)`,
}

// migrate applies pgSchema in one transaction.
func (s *PGStore) migrate(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, stmt := range pgSchema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return tx.Commit(ctx)
}
