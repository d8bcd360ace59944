package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fieldops/workorder-agent/internal/core/domain"
	"github.com/fieldops/workorder-agent/internal/core/ports"
)

// SQLiteStore persists the cache across agent restarts so a UI reconnecting
// after a restart still gets instant (possibly stale-marked) reads. Note
// this persists responses only, never missed events: entries invalidated
// while the agent was down are simply refetched like any other miss.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.CacheStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the cache database at path and
// initializes its schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key_path  TEXT PRIMARY KEY,
		payload   BLOB NOT NULL,
		stale     BOOLEAN NOT NULL DEFAULT 0,
		stored_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cache_entries_stale ON cache_entries(stale);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Get returns the payload cached under key. Stale entries read as misses.
func (s *SQLiteStore) Get(ctx context.Context, key domain.CacheKey) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM cache_entries WHERE key_path = ? AND stale = 0",
		key.String(),
	).Scan(&payload)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return payload, true, nil
}

// Set stores the payload under key, clearing any stale mark.
func (s *SQLiteStore) Set(ctx context.Context, key domain.CacheKey, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key_path, payload, stale, stored_at)
		 VALUES (?, ?, 0, ?)
		 ON CONFLICT(key_path) DO UPDATE SET payload = excluded.payload, stale = 0, stored_at = excluded.stored_at`,
		key.String(), payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Invalidate marks every matching entry stale and returns the count. The
// predicate is a Go function, so keys are evaluated client-side; the cache
// holds at most a few hundred namespaces, which makes a full key scan cheap.
func (s *SQLiteStore) Invalidate(ctx context.Context, pred domain.InvalidationPredicate) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin invalidation: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT key_path FROM cache_entries WHERE stale = 0")
	if err != nil {
		return 0, fmt.Errorf("failed to scan cache keys: %w", err)
	}

	var matched []string
	for rows.Next() {
		var keyPath string
		if err := rows.Scan(&keyPath); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan cache key: %w", err)
		}
		if pred(domain.ParseCacheKey(keyPath)) {
			matched = append(matched, keyPath)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("failed to iterate cache keys: %w", err)
	}
	rows.Close()

	for _, keyPath := range matched {
		if _, err := tx.ExecContext(ctx, "UPDATE cache_entries SET stale = 1 WHERE key_path = ?", keyPath); err != nil {
			return 0, fmt.Errorf("failed to mark entry stale: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit invalidation: %w", err)
	}
	return len(matched), nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
