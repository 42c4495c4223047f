package llm

import (
	"context"
	"strings"
	"time"

	"github.com/bernyforce/llm-council/internal/domain"
)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"
	anthropicMaxTokens   = 4096
)

type AnthropicClient struct {
	transport
	apiKey      string
	messagesURL string
}

func NewAnthropicClient(apiKey string, timeout time.Duration) *AnthropicClient {
	return &AnthropicClient{
		transport:   newTransport(ProviderAnthropic, timeout),
		apiKey:      apiKey,
		messagesURL: anthropicMessagesURL,
	}
}

func (c *AnthropicClient) WithBaseURL(messagesURL string) *AnthropicClient {
	c.messagesURL = messagesURL
	return c
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float32            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Invoke accepts OpenRouter-style ids ("anthropic/claude-...") as well as
// bare model names. System messages are lifted into the top-level field.
func (c *AnthropicClient) Invoke(ctx context.Context, model string, messages []domain.Message) (string, error) {
	req := anthropicRequest{
		Model:       strings.TrimPrefix(model, "anthropic/"),
		MaxTokens:   anthropicMaxTokens,
		Temperature: DefaultTemperature,
	}
	var system []string
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	req.System = strings.Join(system, "\n\n")

	body, err := c.post(ctx, model, c.messagesURL, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}, req)
	if err != nil {
		return "", err
	}

	var result anthropicResponse
	if err := c.decode(model, body, &result); err != nil {
		return "", err
	}

	if result.Error != nil {
		return "", c.apiError(model, result.Error.Message)
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", c.apiError(model, "no content returned")
	}

	return strings.TrimSpace(sb.String()), nil
}
