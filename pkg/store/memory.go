package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
	"github.com/dd0wney/cluso-optipath/pkg/report"
)

// MemoryStore keeps runs in process memory
type MemoryStore struct {
	runs map[string]*StoredRun
	mu   sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*StoredRun)}
}

// SaveRun stores a copy of results under run.ID
func (s *MemoryStore) SaveRun(ctx context.Context, run report.Run, results []pathanalysis.AnalysisResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; ok {
		return fmt.Errorf("%w: %s", ErrRunExists, run.ID)
	}
	s.runs[run.ID] = &StoredRun{
		RunInfo: RunInfo{
			Run:     run,
			Summary: pathanalysis.Summarize(results),
			SavedAt: time.Now().UTC(),
		},
		Results: slices.Clone(results),
	}
	return nil
}

// GetRun retrieves a run by id
func (s *MemoryStore) GetRun(ctx context.Context, id string) (*StoredRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := *run
	out.Results = slices.Clone(run.Results)
	return &out, nil
}

// ListRuns returns every run, newest first
func (s *MemoryStore) ListRuns(ctx context.Context) ([]RunInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	infos := make([]RunInfo, 0, len(s.runs))
	for _, r := range s.runs {
		infos = append(infos, r.RunInfo)
	}
	s.mu.RUnlock()

	sortNewestFirst(infos)
	return infos, nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

func sortNewestFirst(infos []RunInfo) {
	slices.SortFunc(infos, func(a, b RunInfo) int {
		if c := b.Run.StartedAt.Compare(a.Run.StartedAt); c != 0 {
			return c
		}
		if a.Run.ID < b.Run.ID {
			return -1
		}
		if a.Run.ID > b.Run.ID {
			return 1
		}
		return 0
	})
}
