// Package metrics provides Prometheus metrics for the creator score service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Score pipeline
	scoreComputations  prometheus.Counter
	scoreComputeErrors prometheus.Counter
	scoreComputeTime   prometheus.Histogram
	fetchErrors        prometheus.Counter
	fetchLatency       prometheus.Histogram

	// Caches
	scoreCacheHits     prometheus.Counter
	scoreCacheMisses   prometheus.Counter
	flightDedupHits    prometheus.Counter
	inflightGauge      prometheus.Gauge
	cachedScores       prometheus.Gauge
	leaderboardRefresh prometheus.Counter
	leaderboardTime    prometheus.Histogram
	leaderboardSize    prometheus.Gauge

	// Persistence
	storeReadErrors  prometheus.Counter
	storeWriteErrors prometheus.Counter

	// Precompute queue/workers
	queueSize   prometheus.Gauge
	queueDrops  prometheus.Counter
	workerCount prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global manager on a custom registry so the default Go collectors do not
// pollute the scrape output.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "creatorscore",
		subsystem:        "service",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.scoreComputations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_computations_total",
		Help:      "Total number of completed score computations",
	})
	m.scoreComputeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_computation_errors_total",
		Help:      "Total number of failed score computations",
	})
	m.scoreComputeTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_computation_duration_milliseconds",
		Help:      "Histogram of end-to-end score computation duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.fetchErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "metrics_fetch_errors_total",
		Help:      "Total number of failed raw-metrics fetches from the upstream network",
	})
	m.fetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "metrics_fetch_duration_milliseconds",
		Help:      "Histogram of raw-metrics fetch latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.scoreCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_cache_hits_total",
		Help:      "Total number of fresh score cache hits",
	})
	m.scoreCacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_cache_misses_total",
		Help:      "Total number of score cache misses (absent or stale)",
	})
	m.flightDedupHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "singleflight_dedup_total",
		Help:      "Total number of callers that joined an in-flight computation",
	})
	m.inflightGauge = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "computations_inflight",
		Help:      "Number of score computations currently in flight",
	})
	m.cachedScores = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cached_scores",
		Help:      "Number of score records currently indexed by the cache",
	})
	m.leaderboardRefresh = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_refreshes_total",
		Help:      "Total number of leaderboard snapshot rebuilds",
	})
	m.leaderboardTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_refresh_duration_milliseconds",
		Help:      "Histogram of leaderboard rebuild duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.leaderboardSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_entries",
		Help:      "Number of entries in the current leaderboard snapshot",
	})

	m.storeReadErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_read_errors_total",
		Help:      "Total number of persistence read failures (degraded to cache miss)",
	})
	m.storeWriteErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_write_errors_total",
		Help:      "Total number of persistence write failures (result still served)",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "populate_queue_size",
		Help:      "Number of identities waiting in the precompute queue",
	})
	m.queueDrops = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "populate_queue_drops_total",
		Help:      "Total number of identities rejected by the precompute queue",
	})
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "populate_workers",
		Help:      "Number of precompute workers",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Package-level helpers operating on the global manager.

func RecordScoreComputation()               { globalManager.scoreComputations.Inc() }
func RecordScoreComputationError()          { globalManager.scoreComputeErrors.Inc() }
func RecordScoreComputationTime(ms float64) { globalManager.scoreComputeTime.Observe(ms) }
func RecordFetchError()                     { globalManager.fetchErrors.Inc() }
func RecordFetchLatency(ms float64)         { globalManager.fetchLatency.Observe(ms) }

func RecordScoreCacheHit()     { globalManager.scoreCacheHits.Inc() }
func RecordScoreCacheMiss()    { globalManager.scoreCacheMisses.Inc() }
func RecordFlightDedup()       { globalManager.flightDedupHits.Inc() }
func IncInflight()             { globalManager.inflightGauge.Inc() }
func DecInflight()             { globalManager.inflightGauge.Dec() }
func UpdateCachedScores(n int) { globalManager.cachedScores.Set(float64(n)) }

func RecordLeaderboardRefresh()               { globalManager.leaderboardRefresh.Inc() }
func RecordLeaderboardRefreshTime(ms float64) { globalManager.leaderboardTime.Observe(ms) }
func UpdateLeaderboardSize(n int)             { globalManager.leaderboardSize.Set(float64(n)) }

func RecordStoreReadError()  { globalManager.storeReadErrors.Inc() }
func RecordStoreWriteError() { globalManager.storeWriteErrors.Inc() }

func UpdateQueueSize(n int)   { globalManager.queueSize.Set(float64(n)) }
func RecordQueueDrop()        { globalManager.queueDrops.Inc() }
func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

// RecordHTTPRequest counts one request by endpoint, method and status.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// GetRegistry exposes the custom registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
