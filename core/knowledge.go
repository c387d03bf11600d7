package core

import (
	"context"
	"time"
)

// Document is one source document of the knowledge base. Documents are
// constructed fresh on every load and never mutated afterwards.
type Document struct {
	// FileName is the unique key of the document within its source.
	FileName string
	// Title is the first level-1 heading line of the content, or the file
	// name without extension when no heading is present.
	Title string
	// Content is the raw document text.
	Content string
	// LastModified is the modification timestamp of the underlying storage.
	LastModified time.Time
}

// KnowledgeSource reads a set of documents from an external store and
// exposes them as a single combined text blob. Implementations are read
// only and must not mutate source state.
type KnowledgeSource interface {
	// ListDocuments returns all matching documents. It fails with
	// ErrSourceUnavailable when the backing location is missing or
	// unreadable, and returns an empty slice (not an error) when the
	// location exists but holds no matching documents. A single unreadable
	// document is skipped rather than aborting the whole load.
	ListDocuments(ctx context.Context) ([]Document, error)

	// CombinedText returns the deterministic concatenation of all
	// documents ordered by file name ascending. Identical underlying
	// content yields byte-for-byte identical output regardless of call
	// count.
	CombinedText(ctx context.Context) (string, error)
}
