package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-optipath/pkg/journal"
	"github.com/dd0wney/cluso-optipath/pkg/logging"
	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
	"github.com/dd0wney/cluso-optipath/pkg/report"
)

// JournalStore keeps runs in an append-only journal file
type JournalStore struct {
	j *journal.Journal
}

// NewJournalStore stores runs in j
func NewJournalStore(j *journal.Journal) *JournalStore {
	return &JournalStore{j: j}
}

// SaveRun appends the run, its results and its summary
func (s *JournalStore) SaveRun(ctx context.Context, run report.Run, results []pathanalysis.AnalysisResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.GetRun(ctx, run.ID); err == nil {
		return fmt.Errorf("%w: %s", ErrRunExists, run.ID)
	}

	if _, err := s.j.AppendRunStarted(run); err != nil {
		return err
	}
	if len(results) > 0 {
		if _, err := s.j.AppendResults(run.ID, results); err != nil {
			return err
		}
	}
	_, err := s.j.AppendRunFinished(journal.RunFinished{
		RunID:      run.ID,
		FinishedAt: time.Now().UTC(),
		Summary:    pathanalysis.Summarize(results),
	})
	return err
}

// GetRun rebuilds a run from the journal
func (s *JournalStore) GetRun(ctx context.Context, id string) (*StoredRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runs, err := s.j.Runs()
	if err != nil {
		return nil, err
	}
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].Run.ID == id {
			return storedFromJournal(runs[i]), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// ListRuns returns every run in the journal, newest first
func (s *JournalStore) ListRuns(ctx context.Context) ([]RunInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runs, err := s.j.Runs()
	if err != nil {
		return nil, err
	}
	infos := make([]RunInfo, 0, len(runs))
	for _, r := range runs {
		infos = append(infos, storedFromJournal(r).RunInfo)
	}
	sortNewestFirst(infos)
	return infos, nil
}

// Ping flushes pending entries and re-reads the whole journal, so a damaged
// file is reported before the next run is appended to it.
func (s *JournalStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.j.Replay(func(*journal.Entry) error {
		return ctx.Err()
	})
}

// Close closes the journal
func (s *JournalStore) Close() error {
	return s.j.Close()
}

func storedFromJournal(r *journal.RecordedRun) *StoredRun {
	out := &StoredRun{
		RunInfo: RunInfo{Run: r.Run},
		Results: r.Results,
	}
	if r.Finished != nil {
		out.Summary = r.Finished.Summary
		out.SavedAt = r.Finished.FinishedAt
	} else {
		out.Summary = pathanalysis.Summarize(r.Results)
	}
	return out
}

// OpenJournalStore opens or creates the journal in dir.
func OpenJournalStore(dir string, logger logging.Logger) (*JournalStore, error) {
	j, err := journal.Open(dir, logger)
	if err != nil {
		return nil, err
	}
	return NewJournalStore(j), nil
}
