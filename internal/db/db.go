// Package db manages the local sqlite store: selection key-value pairs and
// daily usage imported for offline use.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// pragmas tune sqlite for a single-writer desktop process.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA temp_store=MEMORY",
}

// schema is applied on every open. Statements must be idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	// Metric columns hold decimal strings so call minutes keep their
	// exact fractional part.
	`CREATE TABLE IF NOT EXISTS daily_usage (
		date TEXT PRIMARY KEY,
		sms_in TEXT NOT NULL DEFAULT '0',
		sms_out TEXT NOT NULL DEFAULT '0',
		chatbot_interactions TEXT NOT NULL DEFAULT '0',
		call_count TEXT NOT NULL DEFAULT '0',
		call_minutes TEXT NOT NULL DEFAULT '0',
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	// Older exports carried a time component ("2024-03-04 00:00:00" or
	// "2024-03-04T00:00:00Z"). Keys are plain calendar dates.
	`UPDATE OR REPLACE daily_usage
	 SET date = SUBSTR(date, 1, 10)
	 WHERE length(date) > 10`,
}

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New opens the database at path, creating its directory if needed, and
// brings the schema up to date.
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{DB: sqlDB, path: path}
	if err := db.init(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) init(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, stmt := range pragmas {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute %s: %w", stmt, err)
		}
	}
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}
