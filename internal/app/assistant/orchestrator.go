package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/yvi-assistant/internal/app/analytics"
	"github.com/PabloGalante/yvi-assistant/internal/domain"
	"github.com/PabloGalante/yvi-assistant/internal/observability"
)

// Orchestrator runs the reply stages in sequence and records the result.
// It implements domain.ReplyService.
type Orchestrator struct {
	stages   []Stage
	recorder analytics.Recorder
	metrics  *observability.Metrics
}

// NewDefaultOrchestrator constructs a flow with Retrieve -> Generate -> Brand.
func NewDefaultOrchestrator(search Searcher, client domain.LLMClient, recorder analytics.Recorder, metrics *observability.Metrics) *Orchestrator {
	return NewOrchestrator(recorder, metrics,
		NewRetrieveStage(search),
		NewGenerateStage(client, metrics),
		NewBrandStage(),
	)
}

func NewOrchestrator(recorder analytics.Recorder, metrics *observability.Metrics, stages ...Stage) *Orchestrator {
	return &Orchestrator{
		stages:   stages,
		recorder: recorder,
		metrics:  metrics,
	}
}

// Reply answers one chat message.
func (o *Orchestrator) Reply(ctx context.Context, req domain.ReplyRequest) (*domain.ReplyResponse, error) {
	query := strings.TrimSpace(req.Message)
	if query == "" {
		return nil, domain.ErrEmptyMessage
	}
	if len(o.stages) == 0 {
		return nil, fmt.Errorf("no stages configured in orchestrator")
	}

	log := observability.WithFields(observability.LoggerFromContext(ctx), map[string]any{
		"session_id": string(req.SessionID),
	})
	log.Info().Int("stages_count", len(o.stages)).Msg("orchestrator started")

	turn := &Turn{
		Query:     query,
		SessionID: req.SessionID,
		Settings:  req.Settings,
	}

	for _, st := range o.stages {
		start := time.Now()

		if err := st.Run(ctx, turn); err != nil {
			log.Error().Err(err).Str("stage", st.Name()).Msg("stage failed")
			return nil, fmt.Errorf("stage %s failed: %w", st.Name(), err)
		}

		elapsed := time.Since(start)
		o.metrics.ObserveStage(st.Name(), elapsed)
		log.Debug().Str("stage", st.Name()).Int64("elapsed_ms", elapsed.Milliseconds()).Msg("stage done")
	}

	if o.metrics != nil {
		o.metrics.RepliesTotal.WithLabelValues(turn.Source).Inc()
	}
	o.record(ctx, turn)

	log.Info().Str("source", turn.Source).Msg("orchestrator end")
	return &domain.ReplyResponse{Reply: turn.Reply, Source: turn.Source}, nil
}

// record stores the interaction. A failed write never fails the reply.
func (o *Orchestrator) record(ctx context.Context, t *Turn) {
	if o.recorder == nil {
		return
	}
	err := o.recorder.Record(ctx, domain.ChatLog{
		SessionID: t.SessionID,
		UserQuery: t.Query,
		Response:  t.Reply,
		Category:  t.Category,
		Source:    t.Source,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to record chat log")
	}
}
