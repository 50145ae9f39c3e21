// Package metrics exposes Prometheus counters and histograms for ingestion,
// search, retention and the HTTP API. Every method is safe on a nil
// *Metrics, so components can run without instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hackfind"

// Search outcomes recorded by ObserveSearch.
const (
	OutcomeOK                   = "ok"
	OutcomeIndexNotReady        = "index_not_ready"
	OutcomeEmbeddingUnavailable = "embedding_unavailable"
	OutcomeError                = "error"
)

// Metrics holds the collectors of one process on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ingestRuns      *prometheus.CounterVec
	ingestEvents    *prometheus.CounterVec
	ingestDuration  *prometheus.HistogramVec
	lastIngestTS    *prometheus.GaugeVec
	searchTotal     *prometheus.CounterVec
	searchDuration  prometheus.Histogram
	staleSources    prometheus.Gauge
	retentionPurged prometheus.Counter
	httpRequests    *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.ingestRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_runs_total",
		Help:      "Ingestion runs per source and outcome",
	}, []string{"source", "outcome"})
	m.ingestEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_events_total",
		Help:      "Records seen by ingestion per source and result (accepted, rejected, dropped, indexed)",
	}, []string{"source", "result"})
	m.ingestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingest_duration_seconds",
		Help:      "Time spent ingesting one source",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
	m.lastIngestTS = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ingest_last_success_timestamp_seconds",
		Help:      "Unix time of the last successful ingestion per source",
	}, []string{"source"})
	m.searchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_requests_total",
		Help:      "Hybrid searches per outcome",
	}, []string{"outcome"})
	m.searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_duration_seconds",
		Help:      "Time spent ranking a hybrid search",
		Buckets:   prometheus.DefBuckets,
	})
	m.staleSources = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stale_sources",
		Help:      "Sources whose last ingestion is older than the freshness window",
	})
	m.retentionPurged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retention_deleted_total",
		Help:      "Events removed by retention sweeps",
	})
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests per route pattern and status code",
	}, []string{"method", "route", "code"})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ingestRuns,
		m.ingestEvents,
		m.ingestDuration,
		m.lastIngestTS,
		m.searchTotal,
		m.searchDuration,
		m.staleSources,
		m.retentionPurged,
		m.httpRequests,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// IngestCounts are the per-run numbers reported by ObserveIngest.
type IngestCounts struct {
	Accepted int
	Rejected int
	Dropped  int
	Indexed  int
}

// ObserveIngest records one ingestion run of a source.
func (m *Metrics) ObserveIngest(source string, success bool, counts IngestCounts, elapsed time.Duration, at time.Time) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.ingestRuns.WithLabelValues(source, outcome).Inc()
	m.ingestEvents.WithLabelValues(source, "accepted").Add(float64(counts.Accepted))
	m.ingestEvents.WithLabelValues(source, "rejected").Add(float64(counts.Rejected))
	m.ingestEvents.WithLabelValues(source, "dropped").Add(float64(counts.Dropped))
	m.ingestEvents.WithLabelValues(source, "indexed").Add(float64(counts.Indexed))
	m.ingestDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if success {
		m.lastIngestTS.WithLabelValues(source).Set(float64(at.Unix()))
	}
}

// ObserveSearch records one hybrid search.
func (m *Metrics) ObserveSearch(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.searchTotal.WithLabelValues(outcome).Inc()
	m.searchDuration.Observe(elapsed.Seconds())
}

// SetStaleSources sets the number of stale sources.
func (m *Metrics) SetStaleSources(n int) {
	if m == nil {
		return
	}
	m.staleSources.Set(float64(n))
}

// AddRetentionDeleted counts events removed by a retention sweep.
func (m *Metrics) AddRetentionDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.retentionPurged.Add(float64(n))
}

// ObserveHTTP records a served request. route is the matched pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, code).Inc()
}
