// Package cache provides a SQLite-backed response cache for LLM calls.
//
// Information Hiding:
// - SQLite connection management hidden behind Store
// - Schema and key derivation encapsulated
// - Thread-safe via sql.DB's built-in connection pooling
//
// Identical requests (same messages, model, temperature) hit the cache
// instead of the provider, cutting cost and latency for repeated queries.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/richinex/daedalus/llm"
)

// Store persists LLM responses keyed by a request hash.
type Store struct {
	db *sql.DB
}

// Open opens or creates a cache database at the given path.
// Creates parent directories if they don't exist.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	store := &Store{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return store, nil
}

// OpenInMemory creates an in-memory cache (useful for testing).
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory cache: %w", err)
	}

	store := &Store{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS responses (
			request_hash TEXT PRIMARY KEY,
			response TEXT NOT NULL,
			model TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			last_accessed INTEGER NOT NULL,
			hits INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_responses_model
		ON responses(model);

		CREATE INDEX IF NOT EXISTS idx_responses_created
		ON responses(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the cached response for hash, if present. A hit bumps the
// access timestamp and hit counter.
func (s *Store) Get(ctx context.Context, hash string) (string, bool, error) {
	var response string
	err := s.db.QueryRowContext(ctx,
		`SELECT response FROM responses WHERE request_hash = ?`, hash,
	).Scan(&response)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup failed: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE responses SET last_accessed = ?, hits = hits + 1 WHERE request_hash = ?`,
		time.Now().Unix(), hash,
	)
	if err != nil {
		return "", false, fmt.Errorf("cache access update failed: %w", err)
	}
	return response, true, nil
}

// Put stores a response under hash, replacing any previous entry.
func (s *Store) Put(ctx context.Context, hash, response, model string) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO responses
		 (request_hash, response, model, created_at, last_accessed, hits)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		hash, response, model, now, now,
	)
	if err != nil {
		return fmt.Errorf("cache store failed: %w", err)
	}
	return nil
}

// Len returns the number of cached responses.
func (s *Store) Len(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("cache count failed: %w", err)
	}
	return count, nil
}

// PurgeOlderThan removes entries created before the cutoff. Returns the
// number of rows removed.
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM responses WHERE created_at < ?`, cutoff.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("cache purge failed: %w", err)
	}
	return result.RowsAffected()
}

// Key derives the request hash for a message sequence against a model
// configuration. Role and content both participate so a system-prompt
// change invalidates the entry.
func Key(messages []llm.ChatMessage, info llm.ModelInfo) string {
	h := sha256.New()
	for _, msg := range messages {
		fmt.Fprintf(h, "%s\x1f%s\x1e", msg.Role, msg.Content)
	}
	fmt.Fprintf(h, "%s|%s|%g", info.Provider, info.Model, info.Temperature)
	return hex.EncodeToString(h.Sum(nil))
}
