package assistant

import (
	"context"

	"github.com/PabloGalante/yvi-assistant/internal/app/knowledge"
	"github.com/PabloGalante/yvi-assistant/internal/observability"
)

// Searcher finds the knowledge entry closest to a query.
type Searcher interface {
	Search(ctx context.Context, query string) (*knowledge.Match, error)
}

// RetrieveStage looks the question up in the knowledge base.
type RetrieveStage struct {
	search Searcher
}

func NewRetrieveStage(search Searcher) *RetrieveStage {
	return &RetrieveStage{search: search}
}

func (s *RetrieveStage) Name() string {
	return "retrieve"
}

// Run never fails: a broken knowledge base degrades to an ungrounded answer.
func (s *RetrieveStage) Run(ctx context.Context, t *Turn) error {
	log := observability.LoggerFromContext(ctx)

	match, err := s.search.Search(ctx, t.Query)
	if err != nil {
		log.Warn().Err(err).Msg("knowledge search failed")
		return nil
	}
	if match == nil {
		log.Debug().Msg("no knowledge match")
		return nil
	}

	t.Match = match
	t.Category = match.Entry.Category
	log.Debug().
		Str("entry", match.Entry.Title).
		Float64("confidence", match.Confidence).
		Msg("knowledge match")
	return nil
}
