package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bernyforce/llm-council/internal/domain"
)

const geminiModelsURL = "https://generativelanguage.googleapis.com/v1beta/models"

type GeminiClient struct {
	transport
	apiKey    string
	modelsURL string
}

func NewGeminiClient(apiKey string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		transport: newTransport(ProviderGemini, timeout),
		apiKey:    apiKey,
		modelsURL: geminiModelsURL,
	}
}

func (c *GeminiClient) WithBaseURL(modelsURL string) *GeminiClient {
	c.modelsURL = strings.TrimSuffix(modelsURL, "/")
	return c
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature float32 `json:"temperature"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Invoke maps chat roles onto Gemini's user/model roles. Model ids may carry
// the OpenRouter "google/" prefix.
func (c *GeminiClient) Invoke(ctx context.Context, model string, messages []domain.Message) (string, error) {
	req := geminiRequest{GenerationConfig: geminiGenerationConfig{Temperature: DefaultTemperature}}
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			if req.SystemInstruction == nil {
				req.SystemInstruction = &geminiContent{}
			}
			req.SystemInstruction.Parts = append(req.SystemInstruction.Parts, geminiPart{Text: m.Content})
		case domain.RoleAssistant:
			req.Contents = append(req.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.modelsURL, strings.TrimPrefix(model, "google/"))
	body, err := c.post(ctx, model, url, map[string]string{"x-goog-api-key": c.apiKey}, req)
	if err != nil {
		return "", err
	}

	var result geminiResponse
	if err := c.decode(model, body, &result); err != nil {
		return "", err
	}

	if result.Error != nil {
		return "", c.apiError(model, result.Error.Message)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", c.apiError(model, "no content returned")
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}
