package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/local/chatrelay/internal/convo"
)

// SQLiteStore keeps one JSON-encoded message sequence per user in a SQLite
// key-value table. Replacement is a single upsert, so a concurrent reader
// sees either the old sequence or the new one, never a partial write.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the history database at the given path,
// ensuring the parent directory exists, and initializes the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open db at %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db at %s: %w", path, err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			user_id INTEGER PRIMARY KEY,
			messages TEXT NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT (unixepoch())
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init history schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the stored message sequence for the user, oldest first, or an
// empty slice when the user has no history. Backend failures are returned
// as errors, never as empty history.
func (s *SQLiteStore) Get(ctx context.Context, userID int64) ([]convo.Message, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT messages FROM history WHERE user_id = ?", userID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return []convo.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history read for user %d: %w", userID, err)
	}

	var messages []convo.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, fmt.Errorf("history decode for user %d: %w", userID, err)
	}
	if messages == nil {
		messages = []convo.Message{}
	}
	return messages, nil
}

// Set replaces the stored sequence for the user in a single upsert.
func (s *SQLiteStore) Set(ctx context.Context, userID int64, messages []convo.Message) error {
	if messages == nil {
		messages = []convo.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("history encode for user %d: %w", userID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO history (user_id, messages, updated_at) VALUES (?, ?, unixepoch())
		ON CONFLICT(user_id) DO UPDATE SET messages = excluded.messages, updated_at = unixepoch()
	`, userID, string(raw))
	if err != nil {
		return fmt.Errorf("history write for user %d: %w", userID, err)
	}
	return nil
}

// Clear resets the user's history to the empty sequence.
func (s *SQLiteStore) Clear(ctx context.Context, userID int64) error {
	return s.Set(ctx, userID, nil)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
