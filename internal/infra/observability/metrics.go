package observability

import (
	"time"

	"github.com/orcainteriores/orca-api/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the estimation engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	analysesTotal   *prometheus.CounterVec
	quotesTotal     *prometheus.CounterVec
	objectsTotal    *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orca_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orca_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orca_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orca_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		analysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orca_analyses_total",
				Help: "Total 3D file analyses by status.",
			},
			[]string{"status"},
		),
		quotesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orca_quotes_total",
				Help: "Total quotes generated by status.",
			},
			[]string{"status"},
		),
		objectsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orca_objects_total",
				Help: "Total parsed 3D objects by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrAnalysis increments the analysis counter with a status label.
func (m *Metrics) IncrAnalysis(status string) {
	m.analysesTotal.WithLabelValues(status).Inc()
}

// IncrQuote increments the quote counter with a status label.
func (m *Metrics) IncrQuote(status string) {
	m.quotesTotal.WithLabelValues(status).Inc()
}

// RecordObjects records how many objects a file analysis kept and dropped.
func (m *Metrics) RecordObjects(kept, dropped int) {
	m.objectsTotal.WithLabelValues("kept").Add(float64(kept))
	m.objectsTotal.WithLabelValues("dropped").Add(float64(dropped))
}

// GetEngineSnapshot returns a snapshot of engine metrics suitable for the
// GET /v1/metrics/engine endpoint.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	// Prometheus counters expose cumulative values.
	analysesOK := getCounterValue(m.analysesTotal, "success")
	analysesErr := getCounterValue(m.analysesTotal, "error")
	quotesOK := getCounterValue(m.quotesTotal, "success")
	quotesErr := getCounterValue(m.quotesTotal, "error")
	kept := getCounterValue(m.objectsTotal, "kept")
	dropped := getCounterValue(m.objectsTotal, "dropped")
	cacheHits := getCounterValue(m.cacheHits, "analysis")
	cacheMisses := getCounterValue(m.cacheMisses, "analysis")

	total := analysesOK + analysesErr + quotesOK + quotesErr
	errorRate := float64(0)
	if total > 0 {
		errorRate = (analysesErr + quotesErr) / total
	}

	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	avgComponents := float64(0)
	if analysesOK > 0 {
		avgComponents = kept / analysesOK
	}

	droppedRate := float64(0)
	if kept+dropped > 0 {
		droppedRate = dropped / (kept + dropped)
	}

	return &domain.EngineMetrics{
		TotalAnalyses:        int64(analysesOK + analysesErr),
		TotalQuotes:          int64(quotesOK + quotesErr),
		ErrorRate:            errorRate,
		CacheHitRate:         cacheHitRate,
		AvgComponentsPerFile: avgComponents,
		DroppedObjectRate:    droppedRate,
		Period:               "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
