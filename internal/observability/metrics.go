// Package observability holds the Prometheus metrics exported by the council
// server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets covers model latencies from 100ms up to the two minute range.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "council_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "route"},
	)

	// GatewayRequestsTotal counts model invocations by outcome
	// (ok, error, timeout, or an HTTP status class such as 5xx).
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_gateway_requests_total",
			Help: "Model gateway invocations",
		},
		[]string{"provider", "model", "status"},
	)

	GatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "council_gateway_latency_seconds",
			Help:    "Model gateway latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// StageFailuresTotal counts placeholder answers written per pipeline stage.
	StageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_stage_failures_total",
			Help: "Per-member failures absorbed into the transcript",
		},
		[]string{"stage"},
	)

	// DeliberationsTotal counts deliberations by result
	// (persisted, not_configured, persist_failed).
	DeliberationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_deliberations_total",
			Help: "Deliberation sessions",
		},
		[]string{"result"},
	)

	DeliberationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "council_deliberation_duration_seconds",
			Help:    "End-to-end deliberation duration",
			Buckets: LLMBuckets,
		},
	)

	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "council_ratelimit_rejected_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		GatewayRequestsTotal,
		GatewayLatency,
		StageFailuresTotal,
		DeliberationsTotal,
		DeliberationDuration,
		RateLimitRejectedTotal,
	)
}
