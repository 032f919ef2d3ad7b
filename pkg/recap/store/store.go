// Package store provides the central SQLite database for Recap. A single
// recap.db file holds the observed chat records and the scheduled summary
// jobs. The connection is opened once at startup and shared for the life
// of the process; database/sql serializes access through its pool.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver.
)

// Store wraps the SQLite database handle.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// migration is one versioned schema step. Steps run in order inside a
// transaction and are recorded in schema_migrations, so reopening an
// existing database applies only what is missing.
type migration struct {
	version int
	apply   func(tx *sql.Tx) error
}

var migrations = []migration{
	{1, func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS chat_records (
			session_id TEXT NOT NULL,
			msg_id     INTEGER NOT NULL,
			user       TEXT NOT NULL,
			content    TEXT NOT NULL,
			type       TEXT NOT NULL,
			timestamp  INTEGER NOT NULL,
			PRIMARY KEY (session_id, msg_id)
		)`)
		return err
	}},
	// Databases written before the trigger flag existed lack the column.
	// Add it with default 0 and backfill, without touching existing rows
	// otherwise.
	{2, func(tx *sql.Tx) error {
		ok, err := hasColumn(tx, "chat_records", "is_triggered")
		if err != nil {
			return err
		}
		if !ok {
			if _, err := tx.Exec(`ALTER TABLE chat_records ADD COLUMN is_triggered INTEGER NOT NULL DEFAULT 0`); err != nil {
				return err
			}
			if _, err := tx.Exec(`UPDATE chat_records SET is_triggered = 0`); err != nil {
				return err
			}
		}
		return nil
	}},
	{3, func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_chat_records_session_ts
			ON chat_records(session_id, timestamp)`)
		return err
	}},
	{4, func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS summary_jobs (
			id          TEXT PRIMARY KEY,
			schedule    TEXT NOT NULL,
			channel     TEXT NOT NULL,
			chat_id     TEXT NOT NULL,
			session_id  TEXT NOT NULL,
			count       INTEGER NOT NULL,
			created_at  TEXT NOT NULL,
			last_run_at TEXT,
			last_error  TEXT DEFAULT '',
			run_count   INTEGER DEFAULT 0
		)`)
		return err
	}},
}

// Open opens (or creates) the database at the given path, enables WAL mode
// and runs pending migrations. Safe to call on every startup.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = "./data/recap.db"
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %q: %w", dir, err)
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema version: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate schema versions: %w", err)
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if err := m.apply(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
		s.logger.Debug("applied schema migration", "version", m.version)
	}
	return nil
}

func hasColumn(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
