// Package db opens the single SQLite database file TalkTo persists to,
// with the pragmas spec §5 requires: WAL-like journaling, foreign keys on,
// a 5s busy timeout, and NORMAL synchronous mode.
package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

// Open creates (if needed) and opens the database file at path, returning
// a single-writer-connection pool suitable for serialized write
// transactions per spec §5.
func Open(path string) (*sqlx.DB, error) {
	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("failed to prepare database path: %w", err)
	}
	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_mode=rwc",
		path,
	)
	conn, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer connection avoids SQLITE_BUSY races on the write
	// path; WAL mode still allows concurrent readers on their own pool
	// if one is added later.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	return conn, nil
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
