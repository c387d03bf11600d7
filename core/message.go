package core

import "github.com/google/uuid"

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleSystem marks the knowledge-base context message. At most one
	// system message exists per history and it always occupies index 0.
	RoleSystem Role = "system"
	// RoleUser marks a caller-authored turn.
	RoleUser Role = "user"
	// RoleAssistant marks a provider-authored turn.
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation. Messages are owned by the History
// that holds them; histories hand out copies, never aliases.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// NewSystemMessage creates a system-context message.
func NewSystemMessage(text string) Message { return Message{Role: RoleSystem, Text: text} }

// NewUserMessage creates a user-authored message.
func NewUserMessage(text string) Message { return Message{Role: RoleUser, Text: text} }

// NewAssistantMessage creates a provider-authored message.
func NewAssistantMessage(text string) Message { return Message{Role: RoleAssistant, Text: text} }

// NewID generates a unique identifier for histories and log correlation.
func NewID() string { return uuid.NewString() }
