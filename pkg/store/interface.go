// Package store persists analysis runs for later inspection. MemoryStore
// serves tests and one-shot runs, JournalStore appends runs to a local
// journal and PGStore keeps runs in PostgreSQL.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
	"github.com/dd0wney/cluso-optipath/pkg/report"
)

var (
	// ErrNotFound is returned when no run has the requested id.
	ErrNotFound = errors.New("store: run not found")

	// ErrRunExists is returned when a run id is saved twice.
	ErrRunExists = errors.New("store: run already saved")

	// ErrNodeIDRange is returned by PGStore for node ids that do not fit a BIGINT.
	ErrNodeIDRange = errors.New("store: node id exceeds BIGINT range")
)

// ResultStore defines the interface for run persistence
type ResultStore interface {
	SaveRun(ctx context.Context, run report.Run, results []pathanalysis.AnalysisResult) error
	GetRun(ctx context.Context, id string) (*StoredRun, error)
	ListRuns(ctx context.Context) ([]RunInfo, error)
	Ping(ctx context.Context) error
	Close() error
}

// RunInfo describes a saved run without its results.
type RunInfo struct {
	Run     report.Run
	Summary pathanalysis.Summary
	SavedAt time.Time
}

// StoredRun is a saved run with its results in input order.
type StoredRun struct {
	RunInfo
	Results []pathanalysis.AnalysisResult
}
