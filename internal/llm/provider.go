package llm

import (
	"errors"
	"fmt"
	"time"

	"github.com/bernyforce/llm-council/internal/domain"
)

// Provider constants
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderCerebras   = "cerebras"
	ProviderMock       = "mock"
)

var (
	ErrMissingAPIKey   = errors.New("provider API key not configured")
	ErrUnknownProvider = errors.New("unknown LLM provider")
)

// NewGateway creates a gateway for the named provider.
// Returns an error if the provider is unknown or the API key is empty (except for mock).
func NewGateway(provider, apiKey string, timeout time.Duration) (domain.Gateway, error) {
	switch provider {
	case ProviderOpenRouter:
		if apiKey == "" {
			return nil, fmt.Errorf("%w: OPENROUTER_API_KEY is required for OpenRouter provider", ErrMissingAPIKey)
		}
		return NewOpenRouterClient(apiKey, timeout), nil

	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is required for OpenAI provider", ErrMissingAPIKey)
		}
		return NewOpenAIClient(apiKey, timeout), nil

	case ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is required for Anthropic provider", ErrMissingAPIKey)
		}
		return NewAnthropicClient(apiKey, timeout), nil

	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY is required for Gemini provider", ErrMissingAPIKey)
		}
		return NewGeminiClient(apiKey, timeout), nil

	case ProviderCerebras:
		if apiKey == "" {
			return nil, fmt.Errorf("%w: CEREBRAS_API_KEY is required for Cerebras provider", ErrMissingAPIKey)
		}
		return NewCerebrasClient(apiKey, timeout), nil

	case ProviderMock:
		return NewMockGateway(), nil

	default:
		return nil, fmt.Errorf("%w: %s (valid options: openrouter, openai, anthropic, gemini, cerebras, mock)", ErrUnknownProvider, provider)
	}
}
