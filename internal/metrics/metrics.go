// Package metrics defines the Prometheus collectors for lifecycle
// operations, port allocation, webserver commands and the HTTP API.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without metrics in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vhostctl"

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds every collector. Create with New.
type Metrics struct {
	gatherer prometheus.Gatherer

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	rollbacks         *prometheus.CounterVec
	portsAllocated    *prometheus.CounterVec
	portsReclaimed    prometheus.Counter
	hosts             prometheus.Gauge
	webserverCommands *prometheus.CounterVec

	requestDuration *prometheus.HistogramVec
	requestCount    *prometheus.CounterVec
	panicsRecovered prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses the default
// Prometheus registry.
func New(reg *prometheus.Registry) *Metrics {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	factory := promauto.With(registerer)

	return &Metrics{
		gatherer: gatherer,

		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Lifecycle operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Lifecycle operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		rollbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rollbacks_total",
				Help:      "Create rollbacks by the stage that failed",
			},
			[]string{"stage"},
		),
		portsAllocated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ports_allocated_total",
				Help:      "Ports handed out, by source (reused or fresh)",
			},
			[]string{"source"},
		),
		portsReclaimed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ports_reclaimed_total",
				Help:      "Ports returned to the reclaimed pool",
			},
		),
		hosts: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "hosts",
				Help:      "Live hosts in the store",
			},
		),
		webserverCommands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webserver_commands_total",
				Help:      "Webserver control commands by verb and status",
			},
			[]string{"verb", "status"},
		),

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		),
		requestCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		panicsRecovered: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "panics_recovered_total",
				Help:      "Total number of recovered panics",
			},
		),
	}
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// ObserveOperation counts one lifecycle operation and its duration.
func (m *Metrics) ObserveOperation(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, status(err)).Inc()
	m.operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Rollback counts a create rolled back after stage failed.
func (m *Metrics) Rollback(stage string) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(stage).Inc()
}

// PortAllocated counts a port handed out by the pool.
func (m *Metrics) PortAllocated(reused bool) {
	if m == nil {
		return
	}
	source := "fresh"
	if reused {
		source = "reused"
	}
	m.portsAllocated.WithLabelValues(source).Inc()
}

// PortReclaimed counts a port returned to the pool.
func (m *Metrics) PortReclaimed() {
	if m == nil {
		return
	}
	m.portsReclaimed.Inc()
}

// SetHosts records the number of live hosts.
func (m *Metrics) SetHosts(n int) {
	if m == nil {
		return
	}
	m.hosts.Set(float64(n))
}

// WebserverCommand counts a webserver control verb.
func (m *Metrics) WebserverCommand(verb string, err error) {
	if m == nil {
		return
	}
	m.webserverCommands.WithLabelValues(verb, status(err)).Inc()
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(method, endpoint string, code int, d time.Duration) {
	if m == nil {
		return
	}
	s := strconv.Itoa(code)
	m.requestDuration.WithLabelValues(method, endpoint, s).Observe(d.Seconds())
	m.requestCount.WithLabelValues(method, endpoint, s).Inc()
}

// PanicRecovered counts a panic caught by the HTTP recovery middleware.
func (m *Metrics) PanicRecovered() {
	if m == nil {
		return
	}
	m.panicsRecovered.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == prometheus.DefaultGatherer {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
