// Package store is the content store: the single durable source of truth for
// captured clients, conversations, messages, images, and the image download
// ledger. Rows are never deleted by normal operation; upserts substitute for
// deletion.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection: there is exactly one writer per pass.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, logger: logger}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		client_id       TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		first_seen_at   DATETIME NOT NULL,
		last_updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversations (
		conversation_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id         TEXT NOT NULL UNIQUE REFERENCES clients(client_id),
		last_message_time TEXT
	);

	CREATE TABLE IF NOT EXISTS messages (
		message_id      INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER NOT NULL REFERENCES conversations(conversation_id),
		sender_type     TEXT NOT NULL,
		sender_name     TEXT,
		message_text    TEXT,
		message_date    TEXT,
		message_time    TEXT,
		timestamp       DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conv ON messages(conversation_id);

	CREATE TABLE IF NOT EXISTS images (
		image_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id INTEGER NOT NULL REFERENCES messages(message_id),
		image_url  TEXT NOT NULL,
		image_time TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_images_url ON images(image_url);

	CREATE TABLE IF NOT EXISTS image_downloads (
		url           TEXT PRIMARY KEY,
		filename      TEXT NOT NULL,
		downloaded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS capture_runs (
		run_id      TEXT PRIMARY KEY,
		started_at  DATETIME NOT NULL,
		finished_at DATETIME,
		scraped     INTEGER DEFAULT 0,
		skipped     INTEGER DEFAULT 0,
		failed      INTEGER DEFAULT 0
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
