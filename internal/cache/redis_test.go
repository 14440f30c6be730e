package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/wishlist/internal/cache"
)

func TestRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c, err := cache.NewRedis("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Set(ctx, "u1:wishes", []byte("all"), 30*time.Second))
	require.NoError(t, c.Set(ctx, "u1:wishes:search:bike", []byte("bike"), 30*time.Second))
	require.NoError(t, c.Set(ctx, "u2:wishes", []byte("other"), 0))

	t.Run("keys are prefixed", func(t *testing.T) {
		assert.True(t, mr.Exists("wishlist:u1:wishes"))
		assert.False(t, mr.Exists("u1:wishes"))
		assert.Equal(t, 30*time.Second, mr.TTL("wishlist:u1:wishes"))
		assert.Zero(t, mr.TTL("wishlist:u2:wishes"))
	})

	t.Run("hit", func(t *testing.T) {
		v, ok, err := c.Get(ctx, "u1:wishes")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "all", string(v))
	})

	t.Run("miss", func(t *testing.T) {
		v, ok, err := c.Get(ctx, "nobody:wishes")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("expiry", func(t *testing.T) {
		mr.FastForward(31 * time.Second)
		_, ok, err := c.Get(ctx, "u1:wishes")
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, _ = c.Get(ctx, "u2:wishes")
		assert.True(t, ok, "zero ttl never expires")
	})

	t.Run("prefix delete", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "u1:wishes", []byte("all"), time.Minute))
		require.NoError(t, c.Set(ctx, "u1:wishes:category:Sport", []byte("sport"), time.Minute))
		require.NoError(t, mr.Set("u1:wishes:foreign", "not ours"))
		require.NoError(t, c.DeletePrefix(ctx, "u1:wishes"))

		_, ok, _ := c.Get(ctx, "u1:wishes")
		assert.False(t, ok)
		_, ok, _ = c.Get(ctx, "u1:wishes:category:Sport")
		assert.False(t, ok)
		_, ok, _ = c.Get(ctx, "u2:wishes")
		assert.True(t, ok)
		assert.True(t, mr.Exists("u1:wishes:foreign"))

		require.NoError(t, c.DeletePrefix(ctx, "nothing-here"))
	})

	t.Run("server errors surface", func(t *testing.T) {
		mr.SetError("ERR backend unavailable")
		defer mr.SetError("")
		_, _, err := c.Get(ctx, "u2:wishes")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis get")
	})
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.NewRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))
	v, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))
}
