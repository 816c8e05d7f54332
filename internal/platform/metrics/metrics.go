package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dashboard's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	QueriesSubmitted *prometheus.CounterVec
	QueriesCommitted *prometheus.CounterVec
	QueriesDiscarded *prometheus.CounterVec
	QueriesFailed    *prometheus.CounterVec

	APIRequestDuration *prometheus.HistogramVec
	ExportsTotal       *prometheus.CounterVec
	OverviewCacheHits  *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		QueriesSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "queries_submitted_total",
			Help:      "Queries dispatched by the sequencer.",
		}, []string{"query"}),
		QueriesCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "queries_committed_total",
			Help:      "Query results applied as the authoritative result.",
		}, []string{"query"}),
		QueriesDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "queries_discarded_total",
			Help:      "Responses ignored because a newer query superseded them.",
		}, []string{"query"}),
		QueriesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "queries_failed_total",
			Help:      "Latest queries that ended in an error state.",
		}, []string{"query"}),
		APIRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dashboard",
			Name:      "metrics_api_request_duration_seconds",
			Help:      "Latency of calls to the remote metrics API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "status"}),
		ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "consolidation_exports_total",
			Help:      "Consolidation CSV exports by result.",
		}, []string{"result"}),
		OverviewCacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "overview_cache_lookups_total",
			Help:      "Overview cache lookups by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.QueriesSubmitted,
		m.QueriesCommitted,
		m.QueriesDiscarded,
		m.QueriesFailed,
		m.APIRequestDuration,
		m.ExportsTotal,
		m.OverviewCacheHits,
	)

	return m
}

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

func (m *Metrics) QuerySubmitted(query string) {
	if m != nil {
		m.QueriesSubmitted.WithLabelValues(query).Inc()
	}
}

func (m *Metrics) QueryCommitted(query string) {
	if m != nil {
		m.QueriesCommitted.WithLabelValues(query).Inc()
	}
}

func (m *Metrics) QueryDiscarded(query string) {
	if m != nil {
		m.QueriesDiscarded.WithLabelValues(query).Inc()
	}
}

func (m *Metrics) QueryFailed(query string) {
	if m != nil {
		m.QueriesFailed.WithLabelValues(query).Inc()
	}
}

// ObserveAPI records one metrics API call. status is 0 for transport failures.
func (m *Metrics) ObserveAPI(endpoint string, status int, start time.Time) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.APIRequestDuration.WithLabelValues(endpoint, label).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Export(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.ExportsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) OverviewCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.OverviewCacheHits.WithLabelValues(result).Inc()
}
