package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/bernyforce/llm-council/internal/domain"
)

// MockCall records one Invoke.
type MockCall struct {
	Model    string
	Messages []domain.Message
}

// MockGateway is a configurable gateway for tests and local runs.
// Lookup order per call: Handler, Errors[model], Responses[model],
// DefaultResponse, then a canned "Mock response from <model>".
// Safe for concurrent use.
type MockGateway struct {
	Responses       map[string]string
	Errors          map[string]error
	DefaultResponse string
	Handler         func(ctx context.Context, model string, messages []domain.Message) (string, error)

	mu    sync.Mutex
	calls []MockCall
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		Responses: make(map[string]string),
		Errors:    make(map[string]error),
	}
}

func (g *MockGateway) Invoke(ctx context.Context, model string, messages []domain.Message) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, MockCall{Model: model, Messages: append([]domain.Message(nil), messages...)})
	g.mu.Unlock()

	if g.Handler != nil {
		return g.Handler(ctx, model, messages)
	}
	if err, ok := g.Errors[model]; ok && err != nil {
		return "", err
	}
	if resp, ok := g.Responses[model]; ok {
		return resp, nil
	}
	if g.DefaultResponse != "" {
		return g.DefaultResponse, nil
	}
	return fmt.Sprintf("Mock response from %s", model), nil
}

// Calls returns a snapshot of every recorded call.
func (g *MockGateway) Calls() []MockCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]MockCall(nil), g.calls...)
}

// CallsFor returns the recorded calls made with model.
func (g *MockGateway) CallsFor(model string) []MockCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []MockCall
	for _, c := range g.calls {
		if c.Model == model {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears recorded calls and configured responses.
func (g *MockGateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Responses = make(map[string]string)
	g.Errors = make(map[string]error)
	g.DefaultResponse = ""
	g.Handler = nil
	g.calls = nil
}
