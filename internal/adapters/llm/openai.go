package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sashabaranov/go-openai"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

// OpenAIClient talks to any OpenAI-compatible chat completion API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	// MaxRetries applies to 5xx and connection errors.
	MaxRetries int
	// RetryWaitMin overrides the first backoff step.
	RetryWaitMin time.Duration
}

func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not configured")
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.MaxRetries
	retryClient.RetryWaitMin = 500 * time.Millisecond
	if opts.RetryWaitMin > 0 {
		retryClient.RetryWaitMin = opts.RetryWaitMin
	}
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = opts.Timeout

	clientConfig := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientConfig.BaseURL = opts.BaseURL
	}
	clientConfig.HTTPClient = retryClient.StandardClient()

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       opts.Model,
		temperature: float32(opts.Temperature),
		maxTokens:   opts.MaxTokens,
	}, nil
}

// GenerateReply implements domain.LLMClient.
func (c *OpenAIClient) GenerateReply(ctx context.Context, prompt domain.Prompt) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
	}
	if s := prompt.Settings; s != nil {
		if s.Model != "" {
			req.Model = s.Model
		}
		if s.Temperature > 0 {
			req.Temperature = float32(s.Temperature)
		}
		if s.MaxTokens > 0 {
			req.MaxTokens = s.MaxTokens
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai returned empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
