package sqlite

import (
	"fmt"
)

// migrations are applied in order; PRAGMA user_version records how many ran.
var migrations = []string{
	// 1: client key/value state
	`CREATE TABLE kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`,

	// 2: knowledge base
	`CREATE TABLE knowledge_entries (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_key   TEXT UNIQUE NOT NULL,
		id          TEXT NOT NULL DEFAULT '',
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		keywords    TEXT NOT NULL DEFAULT '[]'
	)`,

	// 3: chat logs for the admin dashboard
	`CREATE TABLE chat_logs (
		id         TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		user_query TEXT NOT NULL,
		response   TEXT NOT NULL,
		category   TEXT NOT NULL DEFAULT '',
		source     TEXT NOT NULL DEFAULT '',
		feedback   TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX idx_chat_logs_created_at ON chat_logs(created_at)`,
}

func (db *DB) migrate() error {
	var version int
	if err := db.conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: set version: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}
	return nil
}
