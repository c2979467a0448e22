package pathanalysis

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-optipath/pkg/logging"
	"github.com/dd0wney/cluso-optipath/pkg/parallel"
)

// AnalyzeAll analyzes every record and returns the results in input order.
// Records are independent; with more than one worker they are fanned out to a
// worker pool and each task writes only its own result slot. The first
// contract violation, in input order, aborts the batch. ctx is only checked
// between records.
func (a *Analyzer) AnalyzeAll(ctx context.Context, records []PathRecord) ([]AnalysisResult, error) {
	results := make([]AnalysisResult, len(records))

	if a.opts.Workers <= 1 || len(records) < 2 {
		for i, rec := range records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := a.Analyze(rec)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			results[i] = res
		}
		return results, nil
	}

	pool, err := parallel.NewWorkerPool(min(a.opts.Workers, len(records)), a.opts.Logger)
	if err != nil {
		return nil, err
	}

	errs := make([]error, len(records))
	for i := range records {
		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("record %d: analysis panicked: %v", i, r)
				}
			}()
			res, err := a.Analyze(records[i])
			if err != nil {
				errs[i] = fmt.Errorf("record %d: %w", i, err)
				return
			}
			results[i] = res
		})
	}
	pool.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	a.opts.Logger.Debug("batch analyzed", logging.Count(len(records)), logging.Int("workers", a.opts.Workers))
	return results, nil
}

// Summary aggregates a batch of results.
type Summary struct {
	Paths            int     `json:"paths" yaml:"paths"`
	OK               int     `json:"ok" yaml:"ok"`
	Unreachable      int     `json:"unreachable" yaml:"unreachable"`
	Regenerators     int     `json:"regenerators" yaml:"regenerators"`
	OPCs             int     `json:"opcs" yaml:"opcs"`
	TotalDistance    float64 `json:"totalDistance" yaml:"totalDistance"`
	ResidualDistance float64 `json:"residualDistance" yaml:"residualDistance"`
}

// Summarize folds results into a Summary. Distances are rounded to two decimals.
func Summarize(results []AnalysisResult) Summary {
	var s Summary
	for _, r := range results {
		s.Paths++
		switch r.Status {
		case StatusOK:
			s.OK++
		case StatusUnreachable:
			s.Unreachable++
		}
		s.Regenerators += len(r.Regenerators)
		s.OPCs += len(r.OPCs)
		s.TotalDistance += r.TotalDistance
		s.ResidualDistance += r.ResidualDistance
	}
	s.TotalDistance = round2(s.TotalDistance)
	s.ResidualDistance = round2(s.ResidualDistance)
	return s
}
