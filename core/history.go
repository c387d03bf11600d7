package core

import (
	"sync"
	"time"
)

// History is an ordered conversation container: insertion order equals
// conversation order. It is safe for concurrent access.
//
// Contract:
//   - At most one system message exists and it is always at index 0
//   - Mutations update the Updated timestamp
//   - Messages returns a defensive copy to avoid external mutation
//   - Clear resets the history to empty (including the system slot)
type History struct {
	ID       string
	Created  time.Time
	Updated  time.Time
	mu       sync.RWMutex
	messages []Message
}

// NewHistory creates an empty history with a fresh identifier.
func NewHistory() *History {
	now := time.Now()
	return &History{ID: NewID(), Created: now, Updated: now}
}

// Append adds a message to the end of the conversation.
func (h *History) Append(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	h.Updated = time.Now()
}

// SetSystem installs the system-context text at index 0, replacing an
// existing system message in place or inserting one at the front. It
// returns true when a new message was inserted rather than replaced.
func (h *History) SetSystem(text string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Updated = time.Now()
	if len(h.messages) > 0 && h.messages[0].Role == RoleSystem {
		h.messages[0].Text = text
		return false
	}
	h.messages = append([]Message{NewSystemMessage(text)}, h.messages...)
	return true
}

// HasSystem reports whether a system message is present.
func (h *History) HasSystem() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages) > 0 && h.messages[0].Role == RoleSystem
}

// Messages returns a copy of the full ordered message slice.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msgs := make([]Message, len(h.messages))
	copy(msgs, h.messages)
	return msgs
}

// Len returns the number of messages including the system slot.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Last returns the final message and true, or a zero message and false when
// the history is empty.
func (h *History) Last() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// Clear resets the history to empty. The identifier is retained.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
	h.Updated = time.Now()
}
