package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
	"github.com/dd0wney/cluso-optipath/pkg/report"
)

// resultPayload is the body of a KindResult entry.
type resultPayload struct {
	RunID  string                      `json:"runId"`
	Result pathanalysis.AnalysisResult `json:"result"`
}

// RunFinished is the body of a KindRunFinished entry.
type RunFinished struct {
	RunID      string               `json:"runId"`
	FinishedAt time.Time            `json:"finishedAt"`
	Summary    pathanalysis.Summary `json:"summary"`
	Error      string               `json:"error,omitempty"`
}

// RecordedRun is a run rebuilt from the journal.
type RecordedRun struct {
	Run      report.Run
	Results  []pathanalysis.AnalysisResult
	Finished *RunFinished
}

// Complete reports whether the run finished without error.
func (r *RecordedRun) Complete() bool {
	return r.Finished != nil && r.Finished.Error == ""
}

// AppendRunStarted opens a run.
func (j *Journal) AppendRunStarted(run report.Run) (uint64, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return 0, fmt.Errorf("failed to encode run: %w", err)
	}
	return j.Append(KindRunStarted, data)
}

// AppendResult records one result of runID.
func (j *Journal) AppendResult(runID string, res pathanalysis.AnalysisResult) (uint64, error) {
	data, err := json.Marshal(resultPayload{RunID: runID, Result: res})
	if err != nil {
		return 0, fmt.Errorf("failed to encode result: %w", err)
	}
	return j.Append(KindResult, data)
}

// AppendResults records every result of runID with a single sync.
func (j *Journal) AppendResults(runID string, results []pathanalysis.AnalysisResult) (uint64, error) {
	payloads := make([][]byte, len(results))
	for i, res := range results {
		data, err := json.Marshal(resultPayload{RunID: runID, Result: res})
		if err != nil {
			return 0, fmt.Errorf("failed to encode result %d: %w", i, err)
		}
		payloads[i] = data
	}
	return j.AppendBatch(KindResult, payloads)
}

// AppendRunFinished closes a run.
func (j *Journal) AppendRunFinished(fin RunFinished) (uint64, error) {
	data, err := json.Marshal(fin)
	if err != nil {
		return 0, fmt.Errorf("failed to encode run summary: %w", err)
	}
	return j.Append(KindRunFinished, data)
}

// ReadAll returns every entry written so far.
func (j *Journal) ReadAll() ([]*Entry, error) {
	var entries []*Entry
	err := j.Replay(func(e *Entry) error {
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// Replay calls fn for every entry in sequence order. It stops at the first
// error fn returns.
func (j *Journal) Replay(fn func(*Entry) error) error {
	j.mu.Lock()
	if !j.closed {
		if err := j.flush(); err != nil {
			j.mu.Unlock()
			return err
		}
	}
	j.mu.Unlock()

	return replayFile(j.Path(), fn)
}

// Runs rebuilds every run in the journal.
func (j *Journal) Runs() ([]*RecordedRun, error) {
	return collectRuns(func(fn func(*Entry) error) error { return j.Replay(fn) })
}

// ReadRuns rebuilds every run in the journal in dir without opening it for
// writing.
func ReadRuns(dir string) ([]*RecordedRun, error) {
	path := filepath.Join(dir, FileName)
	return collectRuns(func(fn func(*Entry) error) error { return replayFile(path, fn) })
}

// LatestRun returns the most recently started run in dir.
func LatestRun(dir string) (*RecordedRun, error) {
	runs, err := ReadRuns(dir)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return runs[len(runs)-1], nil
}

// FindRun returns the run with the given id in dir.
func FindRun(dir, id string) (*RecordedRun, error) {
	runs, err := ReadRuns(dir)
	if err != nil {
		return nil, err
	}
	for _, r := range runs {
		if r.Run.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("journal: run %q not found", id)
}

func replayFile(path string, fn func(*Entry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	_, _, err = scan(f, fn)
	return err
}

func collectRuns(replay func(func(*Entry) error) error) ([]*RecordedRun, error) {
	var runs []*RecordedRun
	byID := make(map[string]*RecordedRun)

	err := replay(func(e *Entry) error {
		switch e.Kind {
		case KindRunStarted:
			var run report.Run
			if err := json.Unmarshal(e.Data, &run); err != nil {
				return fmt.Errorf("%w: entry %d: %v", ErrCorrupt, e.Seq, err)
			}
			rr := &RecordedRun{Run: run, Results: []pathanalysis.AnalysisResult{}}
			runs = append(runs, rr)
			byID[run.ID] = rr

		case KindResult:
			var p resultPayload
			if err := json.Unmarshal(e.Data, &p); err != nil {
				return fmt.Errorf("%w: entry %d: %v", ErrCorrupt, e.Seq, err)
			}
			rr, ok := byID[p.RunID]
			if !ok {
				return fmt.Errorf("%w: entry %d belongs to unknown run %q", ErrCorrupt, e.Seq, p.RunID)
			}
			rr.Results = append(rr.Results, p.Result)

		case KindRunFinished:
			var fin RunFinished
			if err := json.Unmarshal(e.Data, &fin); err != nil {
				return fmt.Errorf("%w: entry %d: %v", ErrCorrupt, e.Seq, err)
			}
			rr, ok := byID[fin.RunID]
			if !ok {
				return fmt.Errorf("%w: entry %d finishes unknown run %q", ErrCorrupt, e.Seq, fin.RunID)
			}
			rr.Finished = &fin

		default:
			return fmt.Errorf("%w: entry %d has unknown kind %s", ErrCorrupt, e.Seq, e.Kind)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}
