// Package rtmetrics exposes optional Prometheus metrics for the invocation
// loop and extension subsystem. Nothing in lambda/ or extension/ requires
// this package: Init is called only when the embedding binary wants a
// debug metrics port, and every recorder is a no-op before Init runs.
package rtmetrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps the Prometheus collectors for one runtime process.
type Metrics struct {
	registry *prometheus.Registry

	invocationsTotal  *prometheus.CounterVec
	panicsTotal       prometheus.Counter
	transportErrTotal *prometheus.CounterVec
	extensionEvents   *prometheus.CounterVec

	stageDuration *prometheus.HistogramVec
}

var (
	mu      sync.Mutex
	current *Metrics
)

var defaultBuckets = []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}

// Init creates the process-wide metrics registry. Calling Init more than
// once replaces the previous registry; it is meant to be called exactly
// once from the embedding binary's bootstrap.
func Init(namespace string) *Metrics {
	mu.Lock()
	defer mu.Unlock()

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		invocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Total number of invocations dispatched, by outcome.",
		}, []string{"outcome"}), // response, error, panic
		panicsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_panics_total",
			Help:      "Total number of panics caught by the panic guard.",
		}),
		transportErrTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_api_transport_errors_total",
			Help:      "Total control API transport errors, by endpoint.",
		}, []string{"endpoint"}),
		extensionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extension_events_total",
			Help:      "Total extension events dispatched, by event type.",
		}, []string{"event_type"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_milliseconds",
			Help:      "Duration of each pipeline stage in milliseconds.",
			Buckets:   defaultBuckets,
		}, []string{"stage"}),
	}

	registry.MustRegister(
		m.invocationsTotal,
		m.panicsTotal,
		m.transportErrTotal,
		m.extensionEvents,
		m.stageDuration,
	)

	current = m
	return m
}

// Handler returns the HTTP handler serving the Prometheus exposition
// format, or nil if Init has not been called.
func Handler() http.Handler {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return nil
	}
	return promhttp.HandlerFor(current.registry, promhttp.HandlerOpts{})
}

// RecordInvocation increments the invocation counter for the given outcome:
// "response", "error", or "panic".
func RecordInvocation(outcome string) {
	mu.Lock()
	m := current
	mu.Unlock()
	if m == nil {
		return
	}
	m.invocationsTotal.WithLabelValues(outcome).Inc()
	if outcome == "panic" {
		m.panicsTotal.Inc()
	}
}

// RecordTransportError increments the transport-error counter for the
// given control API endpoint path.
func RecordTransportError(endpoint string) {
	mu.Lock()
	m := current
	mu.Unlock()
	if m == nil {
		return
	}
	m.transportErrTotal.WithLabelValues(endpoint).Inc()
}

// RecordExtensionEvent increments the extension event counter for the
// given event type: "INVOKE" or "SHUTDOWN".
func RecordExtensionEvent(eventType string) {
	mu.Lock()
	m := current
	mu.Unlock()
	if m == nil {
		return
	}
	m.extensionEvents.WithLabelValues(eventType).Inc()
}

// ObserveStageDuration records how long a named pipeline stage took, in
// milliseconds.
func ObserveStageDuration(stage string, ms float64) {
	mu.Lock()
	m := current
	mu.Unlock()
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(ms)
}
