package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for a batch run
type Registry struct {
	// Analysis Metrics
	PathsAnalyzedTotal  *prometheus.CounterVec
	RegeneratorsPerPath prometheus.Histogram
	OPCsPerPath         prometheus.Histogram
	ResidualDistanceKm  prometheus.Histogram
	PathTotalDistanceKm prometheus.Histogram
	AnalysisDuration    prometheus.Histogram
	ReachThresholdKm    prometheus.Gauge

	// Parser Metrics
	RecordsParsedTotal prometheus.Counter
	ParseErrorsTotal   *prometheus.CounterVec

	// Sink Metrics
	SinkWritesTotal   *prometheus.CounterVec
	SinkWriteDuration *prometheus.HistogramVec

	// Batch Metrics
	BatchDuration        prometheus.Histogram
	BatchLastSuccessUnix prometheus.Gauge
	GoRoutines           prometheus.Gauge
	MemoryAllocBytes     prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.Mutex
}

const namespace = "optipath"

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initAnalysisMetrics()
	r.initParserMetrics()
	r.initSinkMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
