package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection shared by the stores in this package.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the database at path and brings its schema up to
// date. Use ":memory:" for a throwaway database.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one writer; one connection also keeps :memory: stable.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// KV returns a key/value store backed by this database.
func (db *DB) KV() *KVStore {
	return &KVStore{db: db}
}

func (db *DB) Knowledge() *KnowledgeStore {
	return &KnowledgeStore{db: db}
}

func (db *DB) ChatLogs() *ChatLogStore {
	return &ChatLogStore{db: db}
}
