// Package logging provides a minimal logging interface and adapters for kbchat.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) the orchestrator and adapters use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ChatLogger with conversation context and domain helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "text")
//	orch := chat.New(source, provider, chat.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
