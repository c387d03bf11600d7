// Package core provides the foundational domain types and contracts used by
// kbchat. It defines the core abstractions for:
//
//   - Messages and conversation history (ordered turns with a single
//     system-context slot at index 0)
//   - Knowledge sources (document stores combined into one deterministic
//     system-context blob)
//   - Response caches (fingerprint-keyed completions for the blocking path)
//   - Fingerprinting (order-sensitive digests of message sequences)
//   - The error taxonomy shared across packages
//
// The package intentionally keeps implementation concerns (filesystem
// loading, cache backends, provider adapters, orchestration) out of scope,
// exposing small interfaces so backends can be swapped at wiring time.
package core
