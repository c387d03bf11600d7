package core

import (
	"context"
	"time"
)

// ResponseCache maps a history fingerprint to a previously observed
// complete response. Entries are advisory: a cache failure degrades to a
// provider call and never aborts a request. Only the blocking completion
// path consults the cache; streamed responses are neither served from nor
// written to it.
type ResponseCache interface {
	// Get returns the cached response for the fingerprint and whether it
	// was present.
	Get(ctx context.Context, fingerprint string) (string, bool, error)

	// Put stores a response under the fingerprint. A non-positive ttl
	// stores the entry without expiry.
	Put(ctx context.Context, fingerprint, response string, ttl time.Duration) error
}
