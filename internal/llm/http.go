package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bernyforce/llm-council/internal/buildconfig"
)

const (
	// DefaultTimeout bounds a single provider call.
	DefaultTimeout = 30 * time.Second

	// DefaultTemperature is the sampling temperature sent with every call.
	DefaultTemperature = 0.7

	maxErrorBody = 512
)

// transport carries what every provider client needs to issue one JSON POST.
type transport struct {
	provider   string
	httpClient *http.Client
	timeout    time.Duration
}

func newTransport(provider string, timeout time.Duration) transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return transport{
		provider:   provider,
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// post sends payload to url and returns the raw response body of a 2xx reply.
// Every failure comes back as a *GatewayError.
func (t transport) post(ctx context.Context, model, url string, headers map[string]string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &GatewayError{Provider: t.provider, Model: model, Message: "marshal request", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &GatewayError{Provider: t.provider, Model: model, Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildconfig.UserAgent())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Provider: t.provider, Model: model, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Provider: t.provider, Model: model, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{
			Provider:   t.provider,
			Model:      model,
			StatusCode: resp.StatusCode,
			Message:    truncateBody(respBody),
		}
	}
	return respBody, nil
}

func (t transport) apiError(model, msg string) error {
	return &GatewayError{Provider: t.provider, Model: model, Message: msg}
}

func (t transport) decode(model string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &GatewayError{Provider: t.provider, Model: model, Message: "unmarshal response", Err: err}
	}
	return nil
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
