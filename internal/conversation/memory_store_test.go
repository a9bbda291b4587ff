package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSlidingTTL(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := store.Update(ctx, "c1", func(c *Context) { c.Greeted = true })
	require.NoError(t, err)

	// Each update pushes the expiry out again.
	now = now.Add(50 * time.Minute)
	_, err = store.Update(ctx, "c1", func(c *Context) { c.FailedAttempts = 2 })
	require.NoError(t, err)

	now = now.Add(50 * time.Minute)
	c, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, c.Greeted)

	// Idle past the window: fresh default.
	now = now.Add(2 * time.Hour)
	c, err = store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, c.Greeted)
	assert.Equal(t, "c1", c.ContactID)
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	_, err := store.Update(ctx, "c1", func(c *Context) { c.Greeted = true })
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx, "c1"))

	c, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, c.Greeted)
}
