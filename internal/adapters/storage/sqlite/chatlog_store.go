package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

type ChatLogStore struct {
	db *DB
}

func (s *ChatLogStore) AppendChatLog(ctx context.Context, log *domain.ChatLog) error {
	if log == nil {
		return nil
	}
	if log.ID == "" {
		return errors.New("chat log without id")
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO chat_logs (id, created_at, session_id, user_query, response, category, source, feedback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.Timestamp.UnixMilli(), string(log.SessionID), log.UserQuery, log.Response,
		log.Category, log.Source, string(log.Feedback))
	if err != nil {
		return fmt.Errorf("append chat log: %w", err)
	}
	return nil
}

// ListChatLogs returns the newest logs first. limit <= 0 returns all of them.
func (s *ChatLogStore) ListChatLogs(ctx context.Context, limit int) ([]*domain.ChatLog, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, created_at, session_id, user_query, response, category, source, feedback
		FROM chat_logs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat logs: %w", err)
	}
	defer rows.Close()

	var out []*domain.ChatLog
	for rows.Next() {
		var (
			l         domain.ChatLog
			createdAt int64
			sessionID string
			feedback  string
		)
		if err := rows.Scan(&l.ID, &createdAt, &sessionID, &l.UserQuery, &l.Response, &l.Category, &l.Source, &feedback); err != nil {
			return nil, fmt.Errorf("scan chat log: %w", err)
		}
		l.Timestamp = time.UnixMilli(createdAt).UTC()
		l.SessionID = domain.SessionID(sessionID)
		l.Feedback = domain.Feedback(feedback)
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (s *ChatLogStore) SetFeedback(ctx context.Context, id string, feedback domain.Feedback) error {
	res, err := s.db.conn.ExecContext(ctx, `UPDATE chat_logs SET feedback = ? WHERE id = ?`, string(feedback), id)
	if err != nil {
		return fmt.Errorf("set feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set feedback: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("chat log %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
