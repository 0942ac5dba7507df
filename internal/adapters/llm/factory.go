package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/yvi-assistant/internal/config"
	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

// New builds the LLM client selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (domain.LLMClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return NewGeminiClient(ctx, cfg.GeminiKey, cfg.Model, cfg.Temperature, cfg.MaxTokens)
	case "openai":
		return NewOpenAIClient(OpenAIOptions{
			APIKey:      cfg.OpenAIKey,
			BaseURL:     cfg.OpenAIURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
			MaxRetries:  2,
		})
	case "mock", "":
		return NewMockLLM(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
