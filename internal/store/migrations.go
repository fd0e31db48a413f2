package store

import (
	"database/sql"
	"fmt"

	"github.com/franz/melodeon/internal/util"
)

// MigrationApplied reports whether a named one-shot migration has run
func (s *Store) MigrationApplied(name string) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM migrations WHERE name = ?", name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordMigration writes a ledger entry for a migration whose work ran
// outside a single transaction, committing piece by piece. Recording an
// already-applied name is a no-op.
func (s *Store) RecordMigration(name string) error {
	if _, err := s.db.Exec("INSERT OR IGNORE INTO migrations (name) VALUES (?)", name); err != nil {
		return fmt.Errorf("record migration %q: %w", name, err)
	}
	return nil
}

// RunNamedMigration executes a one-shot migration inside a transaction and
// records it in the ledger. Re-running an applied migration is a no-op,
// which makes the batch dedup/canonicalization entry points safe to call
// repeatedly.
func (s *Store) RunNamedMigration(name string, fn func(*sql.Tx) error) error {
	applied, err := s.MigrationApplied(name)
	if err != nil {
		return fmt.Errorf("check migration %q: %w", name, err)
	}
	if applied {
		util.DebugLog("Migration %q already applied, skipping", name)
		return nil
	}

	util.InfoLog("Applying migration %q", name)
	return s.Transaction(func(tx *sql.Tx) error {
		if err := fn(tx); err != nil {
			return fmt.Errorf("migration %q: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %q: %w", name, err)
		}
		return nil
	})
}
