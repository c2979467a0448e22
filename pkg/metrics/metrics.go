package metrics

import (
	"fmt"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
)

// RecordAnalysis records one analyzed path. It satisfies pathanalysis.Recorder.
func (r *Registry) RecordAnalysis(res pathanalysis.AnalysisResult, duration time.Duration) {
	r.PathsAnalyzedTotal.WithLabelValues(string(res.Status)).Inc()
	r.PathTotalDistanceKm.Observe(res.TotalDistance)
	r.AnalysisDuration.Observe(duration.Seconds())

	if res.Status != pathanalysis.StatusOK {
		return
	}
	r.RegeneratorsPerPath.Observe(float64(len(res.Regenerators)))
	r.OPCsPerPath.Observe(float64(len(res.OPCs)))
	r.ResidualDistanceKm.Observe(res.ResidualDistance)
}

// SetReachThreshold publishes the threshold of the running batch
func (r *Registry) SetReachThreshold(km float64) {
	r.ReachThresholdKm.Set(km)
}

// RecordParse records the outcome of parsing simulator output
func (r *Registry) RecordParse(accepted int, rejectedByReason map[string]int) {
	r.RecordsParsedTotal.Add(float64(accepted))
	for reason, n := range rejectedByReason {
		r.ParseErrorsTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordSinkWrite records a write to a result sink
func (r *Registry) RecordSinkWrite(sink string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.SinkWritesTotal.WithLabelValues(sink, status).Inc()
	r.SinkWriteDuration.WithLabelValues(sink).Observe(duration.Seconds())
}

// RecordBatch records the end of a batch run and samples runtime gauges
func (r *Registry) RecordBatch(duration time.Duration, err error) {
	r.BatchDuration.Observe(duration.Seconds())
	if err == nil {
		r.BatchLastSuccessUnix.SetToCurrentTime()
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(ms.Alloc))
}

// WriteTextfile writes every metric in the Prometheus text format to path,
// for pickup by the node exporter textfile collector. The file is replaced
// atomically.
func (r *Registry) WriteTextfile(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
