package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// schemaStatements create the activity table and its indexes. Every statement
// is guarded by IF NOT EXISTS so the set can run on every write.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS activity_log (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp         TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
		command           TEXT NOT NULL CHECK (command <> ''),
		repo_name         TEXT,
		repo_remote       TEXT,
		branch            TEXT,
		working_directory TEXT NOT NULL,
		success           INTEGER,
		error_message     TEXT,
		duration_ms       INTEGER CHECK (duration_ms IS NULL OR duration_ms >= 0),
		pr_number         INTEGER CHECK (pr_number IS NULL OR pr_number > 0),
		commit_message    TEXT,
		branch_name       TEXT,
		commit_hash       TEXT,
		pr_url            TEXT,
		pr_title          TEXT,
		pr_author         TEXT,
		files_changed     INTEGER,
		issues_found      INTEGER,
		issue_severity    TEXT,
		tasks_created     INTEGER,
		branches_deleted  INTEGER,
		user_input        TEXT,
		metadata          TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity_log(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_command ON activity_log(command)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_repo_name ON activity_log(repo_name)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_success ON activity_log(success)`,
}

// EnsureSchema creates the database directory, the activity table and its
// indexes if any of them are missing. It is idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.path != "" {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	return tx.Commit()
}
