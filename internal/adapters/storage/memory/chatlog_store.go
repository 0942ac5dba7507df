package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

// ChatLogStore is a simple in-memory implementation of domain.ChatLogStore.
// It is NOT persistent and is only suitable for development / local mode.
type ChatLogStore struct {
	mu   sync.RWMutex
	logs []*domain.ChatLog
	byID map[string]*domain.ChatLog
}

func NewChatLogStore() *ChatLogStore {
	return &ChatLogStore{
		byID: make(map[string]*domain.ChatLog),
	}
}

func (s *ChatLogStore) AppendChatLog(_ context.Context, log *domain.ChatLog) error {
	if log == nil {
		return nil
	}
	if log.ID == "" {
		return fmt.Errorf("chat log without id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *log
	s.logs = append(s.logs, &cp)
	s.byID[cp.ID] = &cp
	return nil
}

// ListChatLogs returns the last `limit` logs, newest first.
// If limit <= 0, returns all.
func (s *ChatLogStore) ListChatLogs(_ context.Context, limit int) ([]*domain.ChatLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.logs) {
		limit = len(s.logs)
	}

	out := make([]*domain.ChatLog, 0, limit)
	for i := len(s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.logs[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *ChatLogStore) SetFeedback(_ context.Context, id string, feedback domain.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("chat log %s: %w", id, domain.ErrNotFound)
	}
	log.Feedback = feedback
	return nil
}
