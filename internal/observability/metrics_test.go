package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	RequestsTotal.WithLabelValues("GET", "/api/health", "2xx").Inc()
	RequestDuration.WithLabelValues("GET", "/api/health").Observe(0.01)
	GatewayRequestsTotal.WithLabelValues("mock", "test", "ok").Inc()
	GatewayLatency.WithLabelValues("mock", "test").Observe(0.2)
	StageFailuresTotal.WithLabelValues("opinions_collected").Inc()
	DeliberationsTotal.WithLabelValues("persisted").Inc()
	DeliberationDuration.Observe(3)
	RateLimitRejectedTotal.Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		found[mf.GetName()] = mf
	}

	for name, typ := range map[string]dto.MetricType{
		"council_http_requests_total":           dto.MetricType_COUNTER,
		"council_http_request_duration_seconds": dto.MetricType_HISTOGRAM,
		"council_gateway_requests_total":        dto.MetricType_COUNTER,
		"council_gateway_latency_seconds":       dto.MetricType_HISTOGRAM,
		"council_stage_failures_total":          dto.MetricType_COUNTER,
		"council_deliberations_total":           dto.MetricType_COUNTER,
		"council_deliberation_duration_seconds": dto.MetricType_HISTOGRAM,
		"council_ratelimit_rejected_total":      dto.MetricType_COUNTER,
	} {
		mf, ok := found[name]
		if assert.True(t, ok, "metric %s not registered", name) {
			assert.Equal(t, typ, mf.GetType(), name)
		}
	}
}

func TestGatewayLatencyBuckets(t *testing.T) {
	h := GatewayLatency.WithLabelValues("mock", "bucket-test")
	h.Observe(0.3)
	h.Observe(45)

	var m dto.Metric
	require.NoError(t, h.(prometheus.Histogram).Write(&m))

	hist := m.GetHistogram()
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	require.Len(t, hist.GetBucket(), len(LLMBuckets))

	// 0.3 falls in the 0.5 bucket; 45 first counts in the 60 bucket.
	for _, b := range hist.GetBucket() {
		switch b.GetUpperBound() {
		case 0.1:
			assert.Equal(t, uint64(0), b.GetCumulativeCount())
		case 0.5:
			assert.Equal(t, uint64(1), b.GetCumulativeCount())
		case 30:
			assert.Equal(t, uint64(1), b.GetCumulativeCount())
		case 60:
			assert.Equal(t, uint64(2), b.GetCumulativeCount())
		}
	}
}
