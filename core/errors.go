package core

import "fmt"

var (
	// ErrInvalidInput is returned when user text is empty or whitespace
	// only. It is raised before any side effect: the history is untouched
	// and no provider call is made.
	ErrInvalidInput = fmt.Errorf("invalid input")

	// ErrSourceUnavailable is returned by a KnowledgeSource whose backing
	// location does not exist or cannot be read. A location that exists but
	// holds no matching documents is not an error.
	ErrSourceUnavailable = fmt.Errorf("knowledge source unavailable")

	// ErrKnowledgeUnavailable is returned by the orchestrator when loading
	// the knowledge base fails. The history stays uninitialized so a later
	// call retries the load.
	ErrKnowledgeUnavailable = fmt.Errorf("knowledge base unavailable")

	// ErrProvider subsumes every provider-side failure (authentication,
	// rate limiting, network, malformed response). The orchestrator does
	// not distinguish sub-causes, it only propagates.
	ErrProvider = fmt.Errorf("model provider error")
)
