package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_SetSystemInsertsOnceAtFront(t *testing.T) {
	h := NewHistory()
	h.Append(NewUserMessage("hello"))

	inserted := h.SetSystem("context v1")
	assert.True(t, inserted)

	// second call replaces in place, no second system message
	inserted = h.SetSystem("context v2")
	assert.False(t, inserted)

	msgs := h.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, "context v2", msgs[0].Text)
	assert.Equal(t, RoleUser, msgs[1].Role)
}

func TestHistory_MessagesReturnsCopy(t *testing.T) {
	h := NewHistory()
	h.Append(NewUserMessage("original"))

	msgs := h.Messages()
	msgs[0].Text = "mutated"

	fresh := h.Messages()
	assert.Equal(t, "original", fresh[0].Text)
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory()
	h.SetSystem("context")
	h.Append(NewUserMessage("hi"))
	h.Append(NewAssistantMessage("hello"))
	require.Equal(t, 3, h.Len())

	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.HasSystem())
	_, ok := h.Last()
	assert.False(t, ok)
}

func TestHistory_Last(t *testing.T) {
	h := NewHistory()
	_, ok := h.Last()
	assert.False(t, ok)

	h.Append(NewUserMessage("question"))
	h.Append(NewAssistantMessage("answer"))
	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, RoleAssistant, last.Role)
	assert.Equal(t, "answer", last.Text)
}

func TestHistory_FreshID(t *testing.T) {
	a := NewHistory()
	b := NewHistory()
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}
