package llm

import (
	"fmt"

	"github.com/cbroglie/mustache"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

const CompanyName = "YVI Technologies"

const baseSystemPrompt = `You are YVI Technologies AI Assistant, an intelligent AI for YVI Technologies.

Company name:
- ALWAYS refer to the company as "YVI Technologies".
- NEVER use "YVI Soft Solutions", "YVI Soft", "YVI Soft Solution" or any other variation.

Style:
- Answer professionally and concisely.
- Base the answer on the company data when it is provided.
- When no company data is given, use general knowledge to respond helpfully.
`

// userTemplate wraps the question and, when a knowledge entry matched, the
// company data it should be grounded on. Triple braces: prompts are not HTML.
const userTemplate = `{{#context}}Here is some relevant company data:
{{{context}}}

{{/context}}User: {{{query}}}
Assistant:`

var userTmpl = mustMustache(userTemplate)

func mustMustache(src string) *mustache.Template {
	t, err := mustache.ParseString(src)
	if err != nil {
		panic(fmt.Sprintf("llm: bad prompt template: %v", err))
	}
	return t
}

// BuildPrompt builds the system prompt and the user content for query.
// context is the matched knowledge, empty when nothing matched.
func BuildPrompt(query, context string, settings *domain.Settings) (domain.Prompt, error) {
	data := map[string]any{"query": query}
	if context != "" {
		data["context"] = context
	}

	user, err := userTmpl.Render(data)
	if err != nil {
		return domain.Prompt{}, fmt.Errorf("render prompt: %w", err)
	}

	return domain.Prompt{
		System:   baseSystemPrompt,
		User:     user,
		Settings: settings,
	}, nil
}
