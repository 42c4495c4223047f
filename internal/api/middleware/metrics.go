package middleware

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bernyforce/llm-council/internal/observability"
)

// MetricsCollector counts requests for /api/stats and records the
// Prometheus request metrics.
type MetricsCollector struct {
	requestCount *atomic.Int64
	errorCount   *atomic.Int64
}

// NewMetricsCollector increments the given counters; the App owns them.
func NewMetricsCollector(requestCount, errorCount *atomic.Int64) *MetricsCollector {
	return &MetricsCollector{
		requestCount: requestCount,
		errorCount:   errorCount,
	}
}

// Middleware observes every request. Any 4xx or 5xx status counts as an error.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		mc.requestCount.Add(1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		if rw.statusCode >= 400 {
			mc.errorCount.Add(1)
		}

		route := routePattern(r)
		observability.RequestsTotal.WithLabelValues(r.Method, route, statusClass(rw.statusCode)).Inc()
		observability.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
