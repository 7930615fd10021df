package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite KV errors.
var (
	ErrKVClosed = errors.New("preference database is closed")
)

const defaultBusyTimeoutMs = 5000

const kvSchema = `
CREATE TABLE IF NOT EXISTS nav_prefs (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// SQLiteKV is the durable KV backend over a local SQLite database.
type SQLiteKV struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the preference database at path.
func OpenSQLite(path string, busyTimeoutMs int) (*SQLiteKV, error) {
	if busyTimeoutMs <= 0 {
		busyTimeoutMs = defaultBusyTimeoutMs
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create preference directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		path, busyTimeoutMs)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open preference database: %w", err)
	}

	// One connection: the client is the only writer and SQLite serializes
	// writers anyway.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping preference database: %w", err)
	}

	if _, err := db.ExecContext(ctx, kvSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate preference schema: %w", err)
	}

	return &SQLiteKV{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteKV) Path() string { return s.path }

// Get returns the stored value for key. Missing keys are not an error.
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	if s.db == nil {
		return "", false, ErrKVClosed
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM nav_prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read preference %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	if s.db == nil {
		return ErrKVClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nav_prefs (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write preference %q: %w", key, err)
	}
	return nil
}

// Keys returns all stored keys, for diagnostics.
func (s *SQLiteKV) Keys(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrKVClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key FROM nav_prefs ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list preference keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Reset deletes every stored preference.
func (s *SQLiteKV) Reset(ctx context.Context) error {
	if s.db == nil {
		return ErrKVClosed
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM nav_prefs`)
	if err != nil {
		return fmt.Errorf("failed to reset preferences: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteKV) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
