package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the scholarview service.
// Metrics are organized by subsystem: searches, lookups, upstream sources,
// cache, normalizer, and the HTTP API. All counters and histograms are
// registered via promauto with the default Prometheus registry.
//
// Record methods are safe to call on a nil *Metrics, which lets tests and
// the CLI run without a registry.
type Metrics struct {
	// SearchesTotal counts completed search operations.
	SearchesTotal prometheus.Counter

	// SearchesFailed counts search operations that returned an error.
	SearchesFailed prometheus.Counter

	// SearchDuration observes search duration in seconds, cache hits included.
	SearchDuration prometheus.Histogram

	// PapersPerSearch observes the number of papers returned per search page.
	PapersPerSearch prometheus.Histogram

	// LookupsTotal counts lookups by operation and outcome
	// (get_by_id, get_related, popular_authors, popular_journals).
	LookupsTotal *prometheus.CounterVec

	// SupplementaryFailures counts failures swallowed by degrading paths.
	SupplementaryFailures *prometheus.CounterVec

	// SourceRequestsTotal counts HTTP requests to the upstream API, labeled by source and endpoint.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed upstream requests, labeled by source, endpoint, and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes upstream request duration in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// SourceRateLimited counts 429 responses from the upstream API, labeled by source.
	SourceRateLimited *prometheus.CounterVec

	// CacheHits counts fresh cache reads, labeled by partition.
	CacheHits *prometheus.CounterVec

	// CacheMisses counts reads that went to the network, labeled by partition.
	CacheMisses *prometheus.CounterVec

	// CacheStores counts entries written, labeled by partition.
	CacheStores *prometheus.CounterVec

	// CacheClears counts explicit clear-all operations.
	CacheClears prometheus.Counter

	// NormalizerDefaults counts placeholder substitutions, labeled by field.
	NormalizerDefaults *prometheus.CounterVec

	// HTTPRequestsTotal counts API requests, labeled by method, route, and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes API request duration in seconds, labeled by method and route.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Searches
		SearchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of paper searches served",
		}),
		SearchesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of paper searches that failed",
		}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of paper searches in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		PapersPerSearch: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_per_search",
			Help:      "Number of papers returned per search page",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		}),

		// Lookups
		LookupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Total number of lookups by operation and outcome",
		}, []string{"operation", "outcome"}),
		SupplementaryFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "supplementary_failures_total",
			Help:      "Total number of swallowed failures on degrading lookups",
		}, []string{"operation"}),

		// Upstream
		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to the upstream API",
		}, []string{"source", "endpoint"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed requests to the upstream API",
		}, []string{"source", "endpoint", "error_type"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of upstream API requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source", "endpoint"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate-limited responses from the upstream API",
		}, []string{"source"}),

		// Cache
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of fresh cache reads",
		}, []string{"partition"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses that required a network call",
		}, []string{"partition"}),
		CacheStores: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_stores_total",
			Help:      "Total number of cache entries written",
		}, []string{"partition"}),
		CacheClears: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_clears_total",
			Help:      "Total number of clear-all operations",
		}),

		// Normalizer
		NormalizerDefaults: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalizer_defaults_total",
			Help:      "Total number of placeholder values substituted for missing upstream fields",
		}, []string{"field"}),

		// HTTP API
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of API requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RecordSearchCompleted records a successful search.
func (m *Metrics) RecordSearchCompleted(paperCount int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SearchesTotal.Inc()
	m.SearchDuration.Observe(durationSeconds)
	m.PapersPerSearch.Observe(float64(paperCount))
}

// RecordSearchFailed records a failed search.
func (m *Metrics) RecordSearchFailed(durationSeconds float64) {
	if m == nil {
		return
	}
	m.SearchesFailed.Inc()
	m.SearchDuration.Observe(durationSeconds)
}

// RecordLookup records the outcome of a non-search lookup.
func (m *Metrics) RecordLookup(operation, outcome string) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordSupplementaryFailure records a failure absorbed into an empty result.
func (m *Metrics) RecordSupplementaryFailure(operation string) {
	if m == nil {
		return
	}
	m.SupplementaryFailures.WithLabelValues(operation).Inc()
}

// RecordSourceRequest records a request to the upstream API.
func (m *Metrics) RecordSourceRequest(source, endpoint string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SourceRequestsTotal.WithLabelValues(source, endpoint).Inc()
	m.SourceRequestDuration.WithLabelValues(source, endpoint).Observe(durationSeconds)
}

// RecordSourceRequestFailed records a failed request to the upstream API.
func (m *Metrics) RecordSourceRequestFailed(source, endpoint, errorType string) {
	if m == nil {
		return
	}
	m.SourceRequestsFailed.WithLabelValues(source, endpoint, errorType).Inc()
}

// RecordSourceRateLimited records a rate limit response from a source.
func (m *Metrics) RecordSourceRateLimited(source string) {
	if m == nil {
		return
	}
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordCacheHit records a fresh read from a cache partition.
func (m *Metrics) RecordCacheHit(partition string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(partition).Inc()
}

// RecordCacheMiss records a read that fell through to the network.
func (m *Metrics) RecordCacheMiss(partition string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(partition).Inc()
}

// RecordCacheStore records a cache write.
func (m *Metrics) RecordCacheStore(partition string) {
	if m == nil {
		return
	}
	m.CacheStores.WithLabelValues(partition).Inc()
}

// RecordCacheClear records a clear-all operation.
func (m *Metrics) RecordCacheClear() {
	if m == nil {
		return
	}
	m.CacheClears.Inc()
}

// RecordNormalizerDefault records a placeholder substituted for field.
func (m *Metrics) RecordNormalizerDefault(field string) {
	if m == nil {
		return
	}
	m.NormalizerDefaults.WithLabelValues(field).Inc()
}

// RecordHTTPRequest records a served API request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
