package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

// MockLLM answers without calling any provider. Used in local mode and tests.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) GenerateReply(_ context.Context, prompt domain.Prompt) (string, error) {
	question := prompt.User
	if i := strings.LastIndex(question, "User: "); i >= 0 {
		question = question[i+len("User: "):]
	}
	question = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(question), "Assistant:"))

	if strings.Contains(prompt.User, "relevant company data") {
		return fmt.Sprintf("Thanks for asking %s about %q. Here is what we can share from our knowledge base.", CompanyName, question), nil
	}
	return fmt.Sprintf("Thanks for reaching out to %s. You asked: %q.", CompanyName, question), nil
}
