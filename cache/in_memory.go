package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	response  string
	expiresAt time.Time // zero means no expiry
}

// InMemoryCache is a volatile core.ResponseCache storing responses in a
// process local map. It is safe for concurrent access. Expired entries are
// dropped lazily on lookup.
type InMemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewInMemoryCache constructs an empty in-memory response cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: make(map[string]entry), now: time.Now}
}

// Get implements core.ResponseCache.
func (c *InMemoryCache) Get(_ context.Context, fingerprint string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[fingerprint]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.entries, fingerprint)
		return "", false, nil
	}
	return e.response, true, nil
}

// Put implements core.ResponseCache. A non-positive ttl stores the entry
// without expiry.
func (c *InMemoryCache) Put(_ context.Context, fingerprint, response string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := entry{response: response}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[fingerprint] = e
	return nil
}

// Len returns the number of stored entries, including not yet collected
// expired ones.
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
