package cache

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/kbchat/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ core.ResponseCache = (*InMemoryCache)(nil)

func TestInMemoryCache_PutGet(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "fp1", "a response", time.Minute))
	got, ok, err := c.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a response", got)
}

func TestInMemoryCache_Overwrite(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "fp", "old", time.Minute))
	require.NoError(t, c.Put(ctx, "fp", "new", time.Minute))
	got, ok, _ := c.Get(ctx, "fp")
	assert.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestInMemoryCache_Expiry(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put(ctx, "fp", "resp", time.Minute))
	_, ok, _ := c.Get(ctx, "fp")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "fp")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len()) // dropped lazily
}

func TestInMemoryCache_NoTTLNeverExpires(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put(ctx, "fp", "resp", 0))
	now = now.Add(24 * 365 * time.Hour)
	got, ok, _ := c.Get(ctx, "fp")
	assert.True(t, ok)
	assert.Equal(t, "resp", got)
}
