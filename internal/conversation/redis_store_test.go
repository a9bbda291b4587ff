package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, ttl), mr
}

func TestRedisStoreGetDefaultIsNotPersisted(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)

	c, err := store.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ContactID)
	assert.Equal(t, FlowNone, c.Flow)

	assert.False(t, mr.Exists("ctx:c1"))
}

func TestRedisStoreUpdateRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	ctx := context.Background()

	saved, err := store.Update(ctx, "c1", func(c *Context) {
		c.Flow = FlowCalculator
		c.Calculator = CalcEMI
		c.Step = "price"
		c.SetData("price", 9_500_000)
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", saved.ContactID)
	assert.False(t, saved.UpdatedAt.IsZero())

	loaded, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, FlowCalculator, loaded.Flow)
	assert.Equal(t, CalcEMI, loaded.Calculator)
	assert.Equal(t, "price", loaded.Step)
	assert.Equal(t, 9_500_000.0, loaded.Data["price"])
}

func TestRedisStoreUpdateRefreshesTTL(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	_, err := store.Update(ctx, "c1", func(c *Context) { c.Greeted = true })
	require.NoError(t, err)

	// Half the window passes, then another turn lands.
	mr.FastForward(30 * time.Minute)
	_, err = store.Update(ctx, "c1", func(c *Context) { c.FailedAttempts = 1 })
	require.NoError(t, err)

	// The first write alone would have expired by now; the refresh kept it.
	mr.FastForward(45 * time.Minute)
	c, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, c.Greeted)
	assert.Equal(t, 1, c.FailedAttempts)
}

func TestRedisStoreIdleContextExpires(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	_, err := store.Update(ctx, "c1", func(c *Context) { c.Greeted = true })
	require.NoError(t, err)

	mr.FastForward(61 * time.Minute)

	c, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, c.Greeted, "expired context should come back as a fresh default")
}

func TestRedisStoreClear(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	_, err := store.Update(ctx, "c1", func(c *Context) { c.Escalated = true })
	require.NoError(t, err)
	require.True(t, mr.Exists("ctx:c1"))

	require.NoError(t, store.Clear(ctx, "c1"))
	assert.False(t, mr.Exists("ctx:c1"))

	// Clearing an absent context is fine.
	assert.NoError(t, store.Clear(ctx, "c1"))
}

func TestRedisStoreUpdateCannotChangeContactID(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)

	saved, err := store.Update(context.Background(), "c1", func(c *Context) {
		c.ContactID = "someone-else"
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", saved.ContactID)
}
