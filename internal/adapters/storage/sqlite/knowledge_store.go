package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

type KnowledgeStore struct {
	db *DB
}

// ListEntries returns entries in the order they were first inserted.
func (s *KnowledgeStore) ListEntries(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, title, description, category, keywords
		FROM knowledge_entries
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("list knowledge entries: %w", err)
	}
	defer rows.Close()

	var out []domain.KnowledgeEntry
	for rows.Next() {
		var e domain.KnowledgeEntry
		var keywords string
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Category, &keywords); err != nil {
			return nil, fmt.Errorf("scan knowledge entry: %w", err)
		}
		if err := json.Unmarshal([]byte(keywords), &e.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords of %q: %w", e.Title, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertEntries inserts entries, replacing any with the same id (or title when id is empty).
func (s *KnowledgeStore) UpsertEntries(ctx context.Context, entries []domain.KnowledgeEntry) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO knowledge_entries (entry_key, id, title, description, category, keywords)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(entry_key) DO UPDATE SET
			id = excluded.id,
			title = excluded.title,
			description = excluded.description,
			category = excluded.category,
			keywords = excluded.keywords
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		keywords := e.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		raw, err := json.Marshal(keywords)
		if err != nil {
			return fmt.Errorf("encode keywords of %q: %w", e.Title, err)
		}
		if _, err := stmt.ExecContext(ctx, entryKey(e), e.ID, e.Title, e.Description, e.Category, string(raw)); err != nil {
			return fmt.Errorf("upsert knowledge entry %q: %w", e.Title, err)
		}
	}
	return tx.Commit()
}

func entryKey(e domain.KnowledgeEntry) string {
	if e.ID != "" {
		return "id:" + e.ID
	}
	return "title:" + e.Title
}
