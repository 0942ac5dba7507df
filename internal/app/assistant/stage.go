package assistant

import (
	"context"

	"github.com/PabloGalante/yvi-assistant/internal/app/knowledge"
	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

// Turn is the state of one /chat request as it moves through the stages.
type Turn struct {
	Query     string
	SessionID domain.SessionID
	Settings  *domain.Settings

	Match    *knowledge.Match
	Reply    string
	Source   string
	Category string
}

// Stage is one step of the reply pipeline. Stages mutate the turn in place.
type Stage interface {
	Name() string
	Run(ctx context.Context, t *Turn) error
}
