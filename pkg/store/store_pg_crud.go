package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
	"github.com/dd0wney/cluso-optipath/pkg/report"
)

const uniqueViolation = "23505"

// SaveRun stores the run and all of its results in one transaction
func (s *PGStore) SaveRun(ctx context.Context, run report.Run, results []pathanalysis.AnalysisResult) error {
	summaryJSON, err := json.Marshal(pathanalysis.Summarize(results))
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	rows := make([]pgResultRow, len(results))
	for i, r := range results {
		if rows[i], err = newPGResultRow(r); err != nil {
			return fmt.Errorf("result %d: %w", i, err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO optipath_runs (id, input, reach_threshold_km, residual_policy, started_at, saved_at, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		run.ID,
		run.Input,
		run.ReachThresholdKm,
		run.ResidualPolicy,
		run.StartedAt,
		time.Now().UTC(),
		summaryJSON,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrRunExists, run.ID)
		}
		return fmt.Errorf("failed to insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for i, r := range results {
		row := rows[i]
		detail, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal result %d: %w", i, err)
		}
		batch.Queue(`
			INSERT INTO optipath_results (run_id, position, source_node, destination_node, total_distance_km,
				regenerators, opcs, residual_distance_km, status, detail)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			run.ID,
			i,
			row.source,
			row.destination,
			r.TotalDistance,
			row.regenerators,
			row.opcs,
			r.ResidualDistance,
			string(r.Status),
			detail,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range results {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert result %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run and its results by id
func (s *PGStore) GetRun(ctx context.Context, id string) (*StoredRun, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, input, reach_threshold_km, residual_policy, started_at, saved_at, summary
		FROM optipath_runs
		WHERE id = $1
	`, id)

	info, err := scanRunInfo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT detail FROM optipath_results WHERE run_id = $1 ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := []pathanalysis.AnalysisResult{}
	for rows.Next() {
		var detail []byte
		if err := rows.Scan(&detail); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		var r pathanalysis.AnalysisResult
		if err := json.Unmarshal(detail, &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	return &StoredRun{RunInfo: info, Results: results}, nil
}

// ListRuns returns every run, newest first
func (s *PGStore) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, input, reach_threshold_km, residual_policy, started_at, saved_at, summary
		FROM optipath_runs
		ORDER BY started_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	infos := []RunInfo{}
	for rows.Next() {
		info, err := scanRunInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return infos, nil
}

func scanRunInfo(row pgx.Row) (RunInfo, error) {
	var info RunInfo
	var summaryJSON []byte
	err := row.Scan(
		&info.Run.ID,
		&info.Run.Input,
		&info.Run.ReachThresholdKm,
		&info.Run.ResidualPolicy,
		&info.Run.StartedAt,
		&info.SavedAt,
		&summaryJSON,
	)
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(summaryJSON, &info.Summary); err != nil {
		return info, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	info.Run.StartedAt = info.Run.StartedAt.UTC()
	info.SavedAt = info.SavedAt.UTC()
	return info, nil
}

// pgResultRow holds the BIGINT columns of one result.
type pgResultRow struct {
	source, destination int64
	regenerators, opcs  []int64
}

func newPGResultRow(r pathanalysis.AnalysisResult) (pgResultRow, error) {
	var row pgResultRow
	var err error
	if row.source, err = pgNodeID(r.Source); err != nil {
		return row, err
	}
	if row.destination, err = pgNodeID(r.Destination); err != nil {
		return row, err
	}
	if row.regenerators, err = pgNodeIDs(r.Regenerators); err != nil {
		return row, err
	}
	if row.opcs, err = pgNodeIDs(r.OPCs); err != nil {
		return row, err
	}
	return row, nil
}

// pgNodeID converts id for a BIGINT column. Ids above math.MaxInt64 would wrap
// negative, so they are rejected.
func pgNodeID(id pathanalysis.NodeID) (int64, error) {
	if uint64(id) > math.MaxInt64 {
		return 0, fmt.Errorf("%w: node %d", ErrNodeIDRange, uint64(id))
	}
	return int64(id), nil
}

func pgNodeIDs(ids []pathanalysis.NodeID) ([]int64, error) {
	out := make([]int64, len(ids))
	for i, id := range ids {
		v, err := pgNodeID(id)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
