package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// distanceBuckets cover a metro span up to a transcontinental path, in km.
var distanceBuckets = []float64{0, 100, 250, 500, 1000, 1500, 2500, 4000, 6000, 10000}

func (r *Registry) initAnalysisMetrics() {
	r.PathsAnalyzedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paths_analyzed_total",
			Help:      "Total number of paths analyzed, by terminal status",
		},
		[]string{"status"},
	)

	r.RegeneratorsPerPath = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "regenerators_per_path",
			Help:      "Number of regenerators placed on a reachable path",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12},
		},
	)

	r.OPCsPerPath = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "opcs_per_path",
			Help:      "Number of optical power compensators placed on a reachable path",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12},
		},
	)

	r.ResidualDistanceKm = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "residual_distance_km",
			Help:      "Uncompensated residual distance of a reachable path in km",
			Buckets:   distanceBuckets,
		},
	)

	r.PathTotalDistanceKm = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "path_total_distance_km",
			Help:      "Interior sub-path distance of every analyzed path in km",
			Buckets:   distanceBuckets,
		},
	)

	r.AnalysisDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent analyzing a single path",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	r.ReachThresholdKm = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reach_threshold_km",
			Help:      "Reach threshold the current batch runs with",
		},
	)
}
