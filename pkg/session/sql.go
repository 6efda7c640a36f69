package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// SQLStorage keeps values in a key/value table. It works with any
// database/sql driver; the storefront binary registers modernc.org/sqlite
// and github.com/lib/pq.
//
//	CREATE TABLE storefront_kv (
//	    name       VARCHAR(128) PRIMARY KEY,
//	    value      TEXT NOT NULL,
//	    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
//	);
type SQLStorage struct {
	db        *sql.DB
	tableName string
	dialect   SQLDialect

	mu     sync.RWMutex
	closed bool
}

// SQLDialect selects placeholder and upsert syntax.
type SQLDialect int

const (
	// DialectSQLite uses ? placeholders and ON CONFLICT upserts.
	DialectSQLite SQLDialect = iota
	// DialectPostgreSQL uses $n placeholders.
	DialectPostgreSQL
)

// ParseDialect maps a driver or dialect name to a SQLDialect.
func ParseDialect(name string) (SQLDialect, error) {
	switch name {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgreSQL, nil
	}
	return 0, fmt.Errorf("session: unknown SQL dialect %q", name)
}

// SQLOption configures SQLStorage.
type SQLOption func(*SQLStorage)

// WithSQLTableName sets the table name. Default: "storefront_kv".
func WithSQLTableName(name string) SQLOption {
	return func(s *SQLStorage) {
		if name != "" {
			s.tableName = name
		}
	}
}

// WithSQLDialect sets the dialect. Default: DialectSQLite.
func WithSQLDialect(d SQLDialect) SQLOption {
	return func(s *SQLStorage) {
		s.dialect = d
	}
}

// NewSQLStorage creates a backend on db. Call EnsureSchema before first use
// unless the table is managed elsewhere.
func NewSQLStorage(db *sql.DB, opts ...SQLOption) *SQLStorage {
	s := &SQLStorage{
		db:        db,
		tableName: "storefront_kv",
		dialect:   DialectSQLite,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SQLStorage) placeholder(n int) string {
	if s.dialect == DialectPostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStorage) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// EnsureSchema creates the key/value table if it does not exist.
func (s *SQLStorage) EnsureSchema(ctx context.Context) error {
	if s.isClosed() {
		return ErrStorageClosed
	}
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name VARCHAR(128) PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("session: create table %s: %w", s.tableName, err)
	}
	return nil
}

// Get returns the value for key.
func (s *SQLStorage) Get(ctx context.Context, key string) (string, error) {
	if s.isClosed() {
		return "", ErrStorageClosed
	}
	query := fmt.Sprintf(`SELECT value FROM %s WHERE name = %s`, s.tableName, s.placeholder(1))

	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: get %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key.
func (s *SQLStorage) Set(ctx context.Context, key, value string) error {
	if s.isClosed() {
		return ErrStorageClosed
	}

	var query string
	switch s.dialect {
	case DialectPostgreSQL:
		query = fmt.Sprintf(`
			INSERT INTO %s (name, value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (name) DO UPDATE SET
				value = EXCLUDED.value,
				updated_at = NOW()`, s.tableName)
	default:
		query = fmt.Sprintf(`
			INSERT INTO %s (name, value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (name) DO UPDATE SET
				value = excluded.value,
				updated_at = CURRENT_TIMESTAMP`, s.tableName)
	}

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("session: set %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLStorage) Delete(ctx context.Context, key string) error {
	if s.isClosed() {
		return ErrStorageClosed
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE name = %s`, s.tableName, s.placeholder(1))
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("session: delete %q: %w", key, err)
	}
	return nil
}

// Close marks the backend closed. The *sql.DB is owned by the caller and is
// not closed.
func (s *SQLStorage) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
