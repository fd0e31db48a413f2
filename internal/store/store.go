// Package store is the sqlite-backed persistence layer: tracks, artists,
// releases, labels, credits and tags, plus the settings table that holds
// per-service API credentials and the named-migration ledger.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

const currentSchemaVersion = 1

// Store represents the application's persistent state
type Store struct {
	db *sql.DB
}

// Queryer is satisfied by both *sql.DB and *sql.Tx so entity operations
// can run standalone or inside an explicit transaction
type Queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Open opens or creates a SQLite database at the given path
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// OpenMemory opens an in-memory database, used by tests
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection
func (s *Store) DB() *sql.DB {
	return s.db
}

// Transaction executes a function within a transaction
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// InsertOutcome is the typed result of an insert-or-ignore write
type InsertOutcome int

const (
	// Inserted means the row was newly created
	Inserted InsertOutcome = iota
	// AlreadyExists means a unique constraint matched an existing row
	AlreadyExists
)

// InsertOrIgnore runs an INSERT OR IGNORE statement and reports whether a
// row was actually written. Re-running the same enrichment produces
// AlreadyExists outcomes instead of constraint errors, which makes
// secondary writes safe to repeat.
func InsertOrIgnore(q Queryer, query string, args ...any) (InsertOutcome, int64, error) {
	res, err := q.Exec(query, args...)
	if err != nil {
		return AlreadyExists, 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return AlreadyExists, 0, err
	}
	if n == 0 {
		return AlreadyExists, 0, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Inserted, 0, nil
	}
	return Inserted, id, nil
}

// migrate applies database migrations
func (s *Store) migrate() error {
	version, err := s.schemaVersion()
	if err != nil {
		return err
	}
	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (1)"); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) schemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, nil
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	return version, err
}
