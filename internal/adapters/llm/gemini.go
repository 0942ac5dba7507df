package llm

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

const DefaultGeminiModel = "gemini-2.0-flash"

type GeminiClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
	maxTokens   int32
}

type GeminiOption func(*genai.ClientConfig)

// WithGeminiEndpoint points the client at another API host (tests, proxies).
func WithGeminiEndpoint(baseURL string, hc *http.Client) GeminiOption {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = baseURL
		cfg.HTTPClient = hc
	}
}

// NewGeminiClient creates an LLMClient backed by the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey, model string, temperature float64, maxTokens int, opts ...GeminiOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not configured")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		modelName:   model,
		temperature: float32(temperature),
		maxTokens:   int32(maxTokens),
	}, nil
}

// GenerateReply implements domain.LLMClient using the Gemini API.
func (g *GeminiClient) GenerateReply(ctx context.Context, prompt domain.Prompt) (string, error) {
	model, temp, maxTokens := g.modelName, g.temperature, g.maxTokens
	if s := prompt.Settings; s != nil {
		if s.Model != "" {
			model = s.Model
		}
		if s.Temperature > 0 {
			temp = float32(s.Temperature)
		}
		if s.MaxTokens > 0 {
			maxTokens = int32(s.MaxTokens)
		}
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt.User, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		// system instructions are sent with the user role
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   maxTokens,
	}

	res, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}

	return text, nil
}
