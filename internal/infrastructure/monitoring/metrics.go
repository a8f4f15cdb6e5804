package monitoring

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MadhavPujara/CheckInSync/internal/apierr"
	"github.com/MadhavPujara/CheckInSync/internal/rest"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// REST client metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RetriesTotal    *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec

	// Workflow metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Snapshot for the CLI summary
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values in plain form
type Snapshot struct {
	Attempts int64
	Retries  int64
	Failures int64
}

// NewMetrics creates a collector backed by its own registry, so several
// instances never collide on registration.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkin_http_requests_total",
				Help: "Total number of HTTP attempts",
			},
			[]string{"api", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "checkin_http_request_duration_seconds",
				Help:    "HTTP attempt duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"api", "method"},
		),
		RetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkin_http_retries_total",
				Help: "Total number of retries scheduled",
			},
			[]string{"api"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkin_http_errors_total",
				Help: "Total number of requests that failed terminally",
			},
			[]string{"api", "kind"},
		),

		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkin_operations_total",
				Help: "Total number of workflow operations",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "checkin_operation_duration_seconds",
				Help:    "Workflow operation duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
	}
}

// Registry returns the registry the metrics are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Hook returns a REST completion hook feeding these metrics
func (m *Metrics) Hook() rest.Hook {
	return func(_ context.Context, a rest.Attempt) {
		m.RecordAttempt(a)
	}
}

// RecordAttempt records one finished REST attempt
func (m *Metrics) RecordAttempt(a rest.Attempt) {
	m.RequestsTotal.WithLabelValues(a.API, a.Request.Method, statusLabel(a)).Inc()
	m.RequestDuration.WithLabelValues(a.API, a.Request.Method).Observe(a.Duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot.Attempts++

	switch {
	case a.Err == nil:
	case a.Retrying:
		m.RetriesTotal.WithLabelValues(a.API).Inc()
		m.snapshot.Retries++
	default:
		m.ErrorsTotal.WithLabelValues(a.API, apierr.Classify(a.Err).Kind.String()).Inc()
		m.snapshot.Failures++
	}
}

// RecordOperation records a workflow operation such as a check-in
func (m *Metrics) RecordOperation(operation, status string, duration time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Snapshot returns current totals
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// WriteTextfile writes every metric in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// statusLabel is the HTTP status of the attempt, or "error" when the
// request never produced a response.
func statusLabel(a rest.Attempt) string {
	if a.Response != nil {
		return strconv.Itoa(a.Response.StatusCode)
	}
	var te *apierr.TransportError
	if errors.As(a.Err, &te) && te.Response != nil {
		return strconv.Itoa(te.Response.StatusCode)
	}
	return "error"
}
