// Package sqlite provides a persistent core.ResponseCache backed by a
// SQLite database, letting cached responses survive process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hupe1980/kbchat/core"
)

// Cache is a SQLite-backed core.ResponseCache. Expired rows are deleted
// lazily on lookup; Purge removes them in bulk.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the cache database at path, ensuring the parent
// directory exists.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db at %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache db at %s: %w", path, err)
	}
	c := &Cache{db: db, now: time.Now}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) initSchema() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS responses (
			fingerprint TEXT PRIMARY KEY,
			response TEXT NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL DEFAULT (unixepoch())
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to init cache schema: %w", err)
	}
	return nil
}

// Get implements core.ResponseCache.
func (c *Cache) Get(ctx context.Context, fingerprint string) (string, bool, error) {
	var response string
	var expiresAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT response, expires_at FROM responses WHERE fingerprint = ?`,
		fingerprint).Scan(&response, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup failed: %w", err)
	}
	if expiresAt > 0 && c.now().Unix() >= expiresAt {
		_, _ = c.db.ExecContext(ctx, `DELETE FROM responses WHERE fingerprint = ?`, fingerprint)
		return "", false, nil
	}
	return response, true, nil
}

// Put implements core.ResponseCache. A non-positive ttl stores the entry
// without expiry.
func (c *Cache) Put(ctx context.Context, fingerprint, response string, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = c.now().Add(ttl).Unix()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO responses (fingerprint, response, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET response = excluded.response, expires_at = excluded.expires_at`,
		fingerprint, response, expiresAt)
	if err != nil {
		return fmt.Errorf("cache store failed: %w", err)
	}
	return nil
}

// Purge deletes all expired rows and returns the number removed.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM responses WHERE expires_at > 0 AND expires_at <= ?`, c.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("cache purge failed: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

var _ core.ResponseCache = (*Cache)(nil)
