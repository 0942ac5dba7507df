package assistant

import (
	"context"

	"github.com/PabloGalante/yvi-assistant/internal/adapters/llm"
	"github.com/PabloGalante/yvi-assistant/internal/domain"
	"github.com/PabloGalante/yvi-assistant/internal/observability"
)

const (
	SourceEnriched = "Enriched Hybrid"
	SourceAI       = "AI Response"

	FallbackReply = "I'm having trouble connecting to the AI service right now. Please try again shortly."
)

// GenerateStage asks the LLM for an answer, grounded on the matched entry when there is one.
type GenerateStage struct {
	llm     domain.LLMClient
	metrics *observability.Metrics
}

func NewGenerateStage(client domain.LLMClient, metrics *observability.Metrics) *GenerateStage {
	return &GenerateStage{llm: client, metrics: metrics}
}

func (s *GenerateStage) Name() string {
	return "generate"
}

func (s *GenerateStage) Run(ctx context.Context, t *Turn) error {
	log := observability.LoggerFromContext(ctx)

	var knowledgeContext string
	t.Source = SourceAI
	if t.Match != nil {
		knowledgeContext = t.Match.Entry.Description
		t.Source = SourceEnriched
	}

	prompt, err := llm.BuildPrompt(t.Query, knowledgeContext, t.Settings)
	if err != nil {
		return err
	}

	reply, err := s.llm.GenerateReply(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Msg("llm call failed, using fallback reply")
		if s.metrics != nil {
			s.metrics.LLMErrors.Inc()
		}
		reply = FallbackReply
	}

	t.Reply = reply
	return nil
}
