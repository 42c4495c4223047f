package llm

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bernyforce/llm-council/internal/domain"
	"github.com/bernyforce/llm-council/internal/observability"
)

// InstrumentedGateway records call counts and latency for another gateway.
type InstrumentedGateway struct {
	next     domain.Gateway
	provider string
}

func Instrument(next domain.Gateway, provider string) *InstrumentedGateway {
	return &InstrumentedGateway{next: next, provider: provider}
}

func (g *InstrumentedGateway) Invoke(ctx context.Context, model string, messages []domain.Message) (string, error) {
	start := time.Now()
	text, err := g.next.Invoke(ctx, model, messages)

	observability.GatewayLatency.WithLabelValues(g.provider, model).Observe(time.Since(start).Seconds())
	observability.GatewayRequestsTotal.WithLabelValues(g.provider, model, callStatus(err)).Inc()

	return text, err
}

func callStatus(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var ge *GatewayError
	if errors.As(err, &ge) && ge.StatusCode != 0 {
		return strconv.Itoa(ge.StatusCode/100) + "xx"
	}
	return "error"
}
