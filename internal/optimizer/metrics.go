package optimizer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// optimizationDuration tracks the time spent computing a result.
	optimizationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimizer_calculation_duration_seconds",
		Help:    "Time taken for cart optimization by strategy",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	}, []string{"strategy"})

	// optimizationErrors tracks failed optimization runs.
	optimizationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_calculation_errors_total",
		Help: "Total number of optimization errors by strategy",
	}, []string{"strategy"})

	// cacheHits tracks result-cache hits per strategy.
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_cache_hits_total",
		Help: "Total number of result cache hits by strategy",
	}, []string{"strategy"})

	// cacheMisses tracks result-cache misses per strategy.
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_cache_misses_total",
		Help: "Total number of result cache misses by strategy",
	}, []string{"strategy"})

	// cartSize tracks the distribution of cart sizes.
	cartSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "optimizer_cart_items_count",
		Help:    "Number of distinct items in optimization requests",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})

	// storesUsed tracks how many stores final allocations span.
	storesUsed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "optimizer_stores_used_count",
		Help:    "Number of stores in final allocations",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 10},
	})

	// savingsPercentage tracks the savings percentage of results.
	savingsPercentage = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "optimizer_savings_percentage",
		Help:    "Savings percentage of optimization results",
		Buckets: []float64{0, 5, 10, 20, 30, 50, 75, 100},
	})

	// upstreamFailures tracks dropped per-store price lookups.
	upstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_upstream_failures_total",
		Help: "Total number of absorbed store lookup failures by store",
	}, []string{"store"})
)

// MetricsRecorder provides methods to record optimizer metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordOptimization records the duration and outcome of a run.
func (m *MetricsRecorder) RecordOptimization(strategy string, duration time.Duration, success bool) {
	optimizationDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if !success {
		optimizationErrors.WithLabelValues(strategy).Inc()
	}
}

// RecordCacheHit records a result-cache hit.
func (m *MetricsRecorder) RecordCacheHit(strategy string) {
	cacheHits.WithLabelValues(strategy).Inc()
}

// RecordCacheMiss records a result-cache miss.
func (m *MetricsRecorder) RecordCacheMiss(strategy string) {
	cacheMisses.WithLabelValues(strategy).Inc()
}

// RecordCartSize records the number of distinct items in a request.
func (m *MetricsRecorder) RecordCartSize(size int) {
	cartSize.Observe(float64(size))
}

// RecordStoresUsed records the store count of a final allocation.
func (m *MetricsRecorder) RecordStoresUsed(count int) {
	storesUsed.Observe(float64(count))
}

// RecordSavingsPercentage records a result's savings percentage.
func (m *MetricsRecorder) RecordSavingsPercentage(pct float64) {
	savingsPercentage.Observe(pct)
}

// RecordUpstreamFailure records an absorbed store lookup failure.
func (m *MetricsRecorder) RecordUpstreamFailure(storeID string) {
	upstreamFailures.WithLabelValues(storeID).Inc()
}
