// Package storage is the record store: a SQLite database holding users,
// categories, expenses and budget goals, with foreign keys enforced and
// cascade deletes declared in the schema. Queries are the per-entity access
// objects over it.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database instead of a file.
const MemoryPath = ":memory:"

const defaultBusyTimeout = 5 * time.Second

// Store is an explicitly constructed handle to the record store. Create one
// per process (or per test) with Open and pass it to whoever needs it.
type Store struct {
	db      *sql.DB
	queries *Queries
	path    string
	dsn     string
}

type options struct {
	busyTimeout time.Duration
}

// Option tunes Open.
type Option func(*options)

// WithBusyTimeout sets how long SQLite waits on a locked database file.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// Open connects to the database at path, enables foreign keys and applies
// pending migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	o := options{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := buildDSN(path, o.busyTimeout)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers in-process and keeps a shared
	// in-memory database alive for the lifetime of the handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:      db,
		queries: New(db),
		path:    path,
		dsn:     dsn,
	}, nil
}

func buildDSN(path string, busyTimeout time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	if path == MemoryPath {
		q.Set("mode", "memory")
		q.Set("cache", "shared")
		return "file:" + uuid.NewString() + "?" + q.Encode()
	}
	return "file:" + path + "?" + q.Encode()
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Queries returns the access objects bound to this store.
func (s *Store) Queries() *Queries {
	return s.queries
}

// DB exposes the underlying handle for health checks and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Path() string {
	return s.path
}

// DSN is the data source name the store was opened with.
func (s *Store) DSN() string {
	return s.dsn
}

// DataVersion changes whenever another connection commits to the database.
func (s *Store) DataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return 0, classify("data version", err)
	}
	return v, nil
}

// Ping checks that the engine still answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}
