// Package metrics provides Prometheus instruments for upstream calls and reports.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for upstream requests.
const (
	OutcomeOK      = "ok"
	OutcomeNetwork = "network"
	OutcomeHTTP    = "http"
	OutcomeSchema  = "schema"
	OutcomeOther   = "other"
)

// Result labels for reports.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Metrics holds the application's Prometheus instruments.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	Reports          *prometheus.CounterVec
	ReportDuration   prometheus.Histogram
}

// NewMetrics registers all instruments on reg. Pass a fresh registry in
// tests to avoid duplicate registration panics.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "baseintel"
	}
	factory := promauto.With(reg)

	return &Metrics{
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Upstream analytics API requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream analytics API request latency",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		Reports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Token reports by result",
		}, []string{"result"}),
		ReportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Time to gather, normalize and render one report",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ObserveUpstream records one upstream call. Safe on a nil receiver.
func (m *Metrics) ObserveUpstream(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.UpstreamLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveReport records one finished report. Safe on a nil receiver.
func (m *Metrics) ObserveReport(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Reports.WithLabelValues(result).Inc()
	m.ReportDuration.Observe(d.Seconds())
}
