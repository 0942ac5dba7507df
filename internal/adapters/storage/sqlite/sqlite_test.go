package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "yvi.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func TestOpenRunsMigrationsOnce(t *testing.T) {
	db, path := openTestDB(t)

	var version int
	require.NoError(t, db.conn.QueryRow(`PRAGMA user_version`).Scan(&version))
	assert.Equal(t, len(migrations), version)

	require.NoError(t, db.Close())
	again, err := Open(path)
	require.NoError(t, err, "reopening an up-to-date database must not re-run migrations")
	defer again.Close()

	var tables int
	require.NoError(t, again.conn.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name IN ('kv', 'knowledge_entries', 'chat_logs')
	`).Scan(&tables))
	assert.Equal(t, 3, tables)
}

func TestKVStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	db, path := openTestDB(t)
	kv := db.KV()

	_, ok, err := kv.Get(ctx, "yvi_chat_sessions")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "yvi_chat_sessions", `[{"id":"a"}]`))
	require.NoError(t, kv.Set(ctx, "yvi_current_session", "a"))
	require.NoError(t, kv.Set(ctx, "yvi_current_session", "b"))
	require.NoError(t, db.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.KV().Get(ctx, "yvi_current_session")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	require.NoError(t, reopened.KV().Delete(ctx, "yvi_current_session"))
	_, ok, _ = reopened.KV().Get(ctx, "yvi_current_session")
	assert.False(t, ok)
}

func TestKnowledgeStoreUpsert(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)
	s := db.Knowledge()

	require.NoError(t, s.UpsertEntries(ctx, []domain.KnowledgeEntry{
		{ID: "svc", Title: "Services", Description: "Web development", Keywords: []string{"web"}},
		{Title: "Contact", Description: "hello@example.com"},
	}))
	require.NoError(t, s.UpsertEntries(ctx, []domain.KnowledgeEntry{
		{ID: "svc", Title: "Services", Description: "Web and mobile development", Category: "services"},
	}))

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Web and mobile development", entries[0].Description)
	assert.Equal(t, "services", entries[0].Category)
	assert.Empty(t, entries[0].Keywords)
	assert.Equal(t, "Contact", entries[1].Title)
}

func TestChatLogStore(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)
	s := db.ChatLogs()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Error(t, s.AppendChatLog(ctx, &domain.ChatLog{UserQuery: "q"}))

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.AppendChatLog(ctx, &domain.ChatLog{
			ID:        id,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			SessionID: "s-1",
			UserQuery: "query " + id,
			Response:  "response " + id,
			Category:  "services",
			Source:    "AI Response",
		}))
	}
	assert.Error(t, s.AppendChatLog(ctx, &domain.ChatLog{ID: "a", Timestamp: base}), "duplicate id")

	logs, err := s.ListChatLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "c", logs[0].ID)
	assert.True(t, base.Add(2*time.Hour).Equal(logs[0].Timestamp))
	assert.Equal(t, domain.SessionID("s-1"), logs[0].SessionID)
	assert.Equal(t, "b", logs[1].ID)

	require.NoError(t, s.SetFeedback(ctx, "a", domain.FeedbackNegative))
	all, err := s.ListChatLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.FeedbackNegative, all[2].Feedback)

	err = s.SetFeedback(ctx, "missing", domain.FeedbackPositive)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
