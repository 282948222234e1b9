package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/blackwell-systems/gitpilot/internal/repo"
)

// busyTimeoutMs is how long a writer waits for another process holding the
// database lock before giving up.
const busyTimeoutMs = 5000

// ContextResolver supplies the repository context folded into each record.
type ContextResolver interface {
	Resolve(ctx context.Context) repo.Context
}

// Store is the activity log. Construct with Open and release with Close.
// It is safe for concurrent use, including by several processes sharing the
// same database file.
type Store struct {
	db       *sqlx.DB
	path     string
	resolver ContextResolver
}

// Open prepares a store backed by the SQLite file at path. Nothing touches
// the filesystem until the first EnsureSchema or Record call. A nil resolver
// reads the context of the process working directory.
func Open(path string, resolver ContextResolver) (*Store, error) {
	// Immediate transactions take the write lock up front so a concurrent
	// writer waits on busy_timeout instead of failing with a stale snapshot.
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_txlock=immediate", path, busyTimeoutMs)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening activity database: %w", err)
	}
	// One connection per process keeps writers in this process serialized;
	// the busy timeout covers writers in other processes.
	db.SetMaxOpenConns(1)

	if resolver == nil {
		resolver = repo.NewReader(nil, "")
	}
	return &Store{db: db, path: path, resolver: resolver}, nil
}

// OpenInMemory opens an in-memory store, useful for testing.
func OpenInMemory(resolver ContextResolver) (*Store, error) {
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if resolver == nil {
		resolver = repo.NewReader(nil, "")
	}
	return &Store{db: db, resolver: resolver}, nil
}

// Path returns the database file path, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
