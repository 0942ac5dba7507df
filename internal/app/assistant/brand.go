package assistant

import (
	"context"
	"regexp"
	"strings"

	"github.com/PabloGalante/yvi-assistant/internal/adapters/llm"
)

// legacyName matches the company's former names in any case and spacing:
// "YVI Soft", "YVI Soft Solution", "yvi  soft solutions", "YVI Soft Solution's".
var legacyName = regexp.MustCompile(`(?i)\byvi\s*soft(?:\s*solutions?)?(?:'s)?\b'?`)

// BrandStage rewrites former company names to the current one.
type BrandStage struct{}

func NewBrandStage() *BrandStage {
	return &BrandStage{}
}

func (s *BrandStage) Name() string {
	return "brand"
}

func (s *BrandStage) Run(_ context.Context, t *Turn) error {
	t.Reply = Rebrand(t.Reply)
	return nil
}

// Rebrand replaces every former company name in text.
func Rebrand(text string) string {
	return legacyName.ReplaceAllStringFunc(text, func(m string) string {
		if strings.HasSuffix(m, "'s") || strings.HasSuffix(m, "'") {
			return llm.CompanyName + "'"
		}
		return llm.CompanyName
	})
}
