package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

// KnowledgeStore keeps knowledge entries in insertion order, keyed by ID
// (or by title when no ID is set).
type KnowledgeStore struct {
	mu      sync.RWMutex
	entries []domain.KnowledgeEntry
	index   map[string]int
}

func NewKnowledgeStore(seed ...domain.KnowledgeEntry) *KnowledgeStore {
	s := &KnowledgeStore{index: make(map[string]int)}
	_ = s.UpsertEntries(context.Background(), seed)
	return s
}

func (s *KnowledgeStore) ListEntries(_ context.Context) ([]domain.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.KnowledgeEntry(nil), s.entries...), nil
}

func (s *KnowledgeStore) UpsertEntries(_ context.Context, entries []domain.KnowledgeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		key := entryKey(e)
		if i, ok := s.index[key]; ok {
			s.entries[i] = e
			continue
		}
		s.index[key] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	return nil
}

func entryKey(e domain.KnowledgeEntry) string {
	if e.ID != "" {
		return "id:" + e.ID
	}
	return "title:" + e.Title
}
