// Package metrics holds the Prometheus instruments for the application.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. Construct with an explicit registerer
// so tests can use their own registry.
type Metrics struct {
	EmailsProcessed  prometheus.Counter
	RequestsDetected prometheus.Counter
	Decisions        *prometheus.CounterVec
	Provisions       *prometheus.CounterVec
	ProvisionSeconds prometheus.Histogram
	NotifyFailures   prometheus.Counter
	HTTPRequests     *prometheus.CounterVec
	HTTPSeconds      *prometheus.HistogramVec
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EmailsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "accessgate_emails_processed_total",
			Help: "Total emails pulled from the source and examined",
		}),
		RequestsDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "accessgate_requests_detected_total",
			Help: "Total access requests detected and created",
		}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "accessgate_decisions_total",
			Help: "Total human decisions recorded",
		}, []string{"decision"}),
		Provisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "accessgate_provisions_total",
			Help: "Total provisioning attempts by tool and outcome",
		}, []string{"tool", "outcome"}),
		ProvisionSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "accessgate_provision_duration_seconds",
			Help:    "Latency of external provisioning calls",
			Buckets: prometheus.DefBuckets,
		}),
		NotifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "accessgate_notify_failures_total",
			Help: "Total notification attempts that failed (and were swallowed)",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "accessgate_http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		HTTPSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accessgate_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPSeconds.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveDecision counts one approve or reject.
func (m *Metrics) ObserveDecision(decision string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(decision).Inc()
}

// ObserveProvision counts one provisioning attempt and its latency.
func (m *Metrics) ObserveProvision(tool string, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.Provisions.WithLabelValues(tool, outcome).Inc()
	m.ProvisionSeconds.Observe(elapsed.Seconds())
}

// IncEmailsProcessed counts examined emails.
func (m *Metrics) IncEmailsProcessed() {
	if m == nil {
		return
	}
	m.EmailsProcessed.Inc()
}

// IncRequestsDetected counts created requests.
func (m *Metrics) IncRequestsDetected() {
	if m == nil {
		return
	}
	m.RequestsDetected.Inc()
}

// IncNotifyFailures counts swallowed notification errors.
func (m *Metrics) IncNotifyFailures() {
	if m == nil {
		return
	}
	m.NotifyFailures.Inc()
}
