package llm

import (
	"context"
	"strings"
	"time"

	"github.com/bernyforce/llm-council/internal/domain"
)

const (
	openRouterChatURL = "https://openrouter.ai/api/v1/chat/completions"
	openAIChatURL     = "https://api.openai.com/v1/chat/completions"
	cerebrasChatURL   = "https://api.cerebras.ai/v1/chat/completions"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
// OpenRouter, OpenAI and Cerebras all share this wire format.
type OpenAIClient struct {
	transport
	apiKey  string
	chatURL string
	headers map[string]string
}

func NewOpenRouterClient(apiKey string, timeout time.Duration) *OpenAIClient {
	return newOpenAICompatible(ProviderOpenRouter, openRouterChatURL, apiKey, timeout)
}

func NewOpenAIClient(apiKey string, timeout time.Duration) *OpenAIClient {
	return newOpenAICompatible(ProviderOpenAI, openAIChatURL, apiKey, timeout)
}

func NewCerebrasClient(apiKey string, timeout time.Duration) *OpenAIClient {
	return newOpenAICompatible(ProviderCerebras, cerebrasChatURL, apiKey, timeout)
}

func newOpenAICompatible(provider, chatURL, apiKey string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		transport: newTransport(provider, timeout),
		apiKey:    apiKey,
		chatURL:   chatURL,
	}
}

// WithBaseURL points the client at another chat completions URL.
func (c *OpenAIClient) WithBaseURL(chatURL string) *OpenAIClient {
	c.chatURL = chatURL
	return c
}

// WithHeader adds a header sent on every request, e.g. OpenRouter's
// HTTP-Referer / X-Title attribution headers.
func (c *OpenAIClient) WithHeader(key, value string) *OpenAIClient {
	if c.headers == nil {
		c.headers = make(map[string]string)
	}
	c.headers[key] = value
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) Invoke(ctx context.Context, model string, messages []domain.Message) (string, error) {
	msgs := make([]chatMessage, len(messages))
	for i, m := range messages {
		msgs[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	for k, v := range c.headers {
		headers[k] = v
	}

	body, err := c.post(ctx, model, c.chatURL, headers, chatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: DefaultTemperature,
	})
	if err != nil {
		return "", err
	}

	var result chatResponse
	if err := c.decode(model, body, &result); err != nil {
		return "", err
	}

	// OpenRouter reports some upstream failures inside a 200 body.
	if result.Error != nil {
		return "", c.apiError(model, result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", c.apiError(model, "no choices returned")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}
