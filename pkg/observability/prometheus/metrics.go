package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fluxorio/threadshare/pkg/share"
	"github.com/fluxorio/threadshare/pkg/worker"
)

// DefaultNamespace prefixes every metric name when none is configured
const DefaultNamespace = "threadshare"

var (
	_ share.Observer  = (*Metrics)(nil)
	_ worker.Observer = (*Metrics)(nil)
)

// Metrics holds the Prometheus collectors for cells, workers and the demo
// HTTP server. It is both a share.Observer and a worker.Observer.
type Metrics struct {
	// Cell metrics
	CellMutationsTotal  *prometheus.CounterVec
	CASRetriesTotal     *prometheus.CounterVec
	DroppedUpdatesTotal *prometheus.CounterVec

	// Worker metrics
	WorkerEventsTotal       *prometheus.CounterVec
	WorkerJoinFailuresTotal prometheus.Counter
	ActiveWorkers           prometheus.Gauge

	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors with registerer. A nil registerer
// uses prometheus.DefaultRegisterer; an empty namespace uses DefaultNamespace.
func NewMetrics(registerer prometheus.Registerer, namespace string) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(registerer)

	return &Metrics{
		CellMutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cell_mutations_total",
				Help:      "Total number of published cell mutations",
			},
			[]string{"cell", "op"}, // op: set, update, write
		),
		CASRetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cell_cas_retries_total",
				Help:      "Total number of lost compare-and-swap attempts",
			},
			[]string{"cell"},
		),
		DroppedUpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cell_dropped_updates_total",
				Help:      "Total number of atomic updates dropped after exhausting retries",
			},
			[]string{"cell"},
		),

		WorkerEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_events_total",
				Help:      "Total number of worker lifecycle events",
			},
			[]string{"event"}, // event: added, paused, resumed, removed, joined
		),
		WorkerJoinFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_join_failures_total",
				Help:      "Total number of workers that ended abnormally",
			},
		),
		ActiveWorkers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "workers_active",
				Help:      "Number of tracked workers",
			},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}
}

// CellMutated implements share.Observer
func (m *Metrics) CellMutated(cell, op string) {
	m.CellMutationsTotal.WithLabelValues(cell, op).Inc()
}

// CASRetried implements share.Observer
func (m *Metrics) CASRetried(cell string) {
	m.CASRetriesTotal.WithLabelValues(cell).Inc()
}

// UpdateDropped implements share.Observer
func (m *Metrics) UpdateDropped(cell string) {
	m.DroppedUpdatesTotal.WithLabelValues(cell).Inc()
}

// WorkerAdded implements worker.Observer
func (m *Metrics) WorkerAdded(string) {
	m.WorkerEventsTotal.WithLabelValues("added").Inc()
	m.ActiveWorkers.Inc()
}

// WorkerPaused implements worker.Observer
func (m *Metrics) WorkerPaused(_ string, paused bool) {
	if paused {
		m.WorkerEventsTotal.WithLabelValues("paused").Inc()
		return
	}
	m.WorkerEventsTotal.WithLabelValues("resumed").Inc()
}

// WorkerRemoved implements worker.Observer
func (m *Metrics) WorkerRemoved(_ string, err error) {
	m.WorkerEventsTotal.WithLabelValues("removed").Inc()
	m.untracked(err)
}

// WorkerJoined implements worker.Observer
func (m *Metrics) WorkerJoined(_ string, err error) {
	m.WorkerEventsTotal.WithLabelValues("joined").Inc()
	m.untracked(err)
}

func (m *Metrics) untracked(err error) {
	m.ActiveWorkers.Dec()
	if err != nil {
		m.WorkerJoinFailuresTotal.Inc()
	}
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
