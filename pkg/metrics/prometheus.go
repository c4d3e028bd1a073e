package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes the service's domain metrics through Prometheus.
type Recorder struct {
	fetchesTotal   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	fetchDuration  *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assethist_fetches_total",
				Help: "Total number of upstream fetches per data source",
			},
			[]string{"source"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assethist_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"source", "type"},
		),
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assethist_cache_hits_total",
				Help: "Memoized results served without refetching",
			},
			[]string{"source"},
		),
		cacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assethist_cache_misses_total",
				Help: "Memoized lookups that required a refetch",
			},
			[]string{"source"},
		),
		searchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assethist_search_duration_seconds",
				Help:    "Duration of composite search resolutions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		fetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assethist_fetch_duration_seconds",
				Help:    "Duration of upstream fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
	}
}

// RecordFetch records one upstream fetch for a source.
func (r *Recorder) RecordFetch(source string) {
	r.fetchesTotal.WithLabelValues(source).Inc()
}

// RecordError records an error for a source.
func (r *Recorder) RecordError(source, kind string) {
	r.errorsTotal.WithLabelValues(source, kind).Inc()
}

// RecordCacheHit records a memoized result served from cache.
func (r *Recorder) RecordCacheHit(source string) {
	r.cacheHits.WithLabelValues(source).Inc()
}

// RecordCacheMiss records a memoized lookup that refetched.
func (r *Recorder) RecordCacheMiss(source string) {
	r.cacheMisses.WithLabelValues(source).Inc()
}

// RecordSearchDuration records a full search resolution.
func (r *Recorder) RecordSearchDuration(outcome string, seconds float64) {
	r.searchDuration.WithLabelValues(outcome).Observe(seconds)
}

// RecordFetchDuration records one upstream fetch duration.
func (r *Recorder) RecordFetchDuration(source string, seconds float64) {
	r.fetchDuration.WithLabelValues(source).Observe(seconds)
}
