// Package chat implements the conversation orchestrator: it owns the
// in-memory history, lazily injects the knowledge-base system instruction
// exactly once, forwards message lists to a model.Provider (through the
// response cache on the blocking path) and reconciles streamed fragments
// back into history.
//
// The orchestrator moves between two states. Uninitialized means no system
// message has been installed yet; the first successful Send or Stream loads
// the knowledge base and transitions to Ready. ClearHistory returns to
// Uninitialized and forces a reload on next use.
//
// One orchestrator serves one logical conversation for one interactive
// caller. Calls must be serialized by the caller: a call completes
// (including full exhaustion of its fragment channel) before the next call
// begins. Overlapping calls against the same instance are not coordinated.
package chat
