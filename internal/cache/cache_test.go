package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "product:id:1", map[string]int{"stock": 3}, time.Minute))

	var got map[string]int
	require.NoError(t, c.Get(ctx, "product:id:1", &got))
	assert.Equal(t, 3, got["stock"])

	assert.ErrorIs(t, c.Get(ctx, "product:id:2", &got), ErrMiss)
}

func TestMemoryCache_Expiration(t *testing.T) {
	c := NewMemoryCache()
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Second))
	ok, _ := c.Exists(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	ok, _ = c.Exists(ctx, "k")
	assert.False(t, ok)

	var v string
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrMiss)
}

func TestMemoryCache_NoExpiration(t *testing.T) {
	c := NewMemoryCache()
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	now = now.Add(24 * time.Hour)

	var v string
	require.NoError(t, c.Get(ctx, "k", &v))
	assert.Equal(t, "v", v)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Set(ctx, "shared", i, time.Minute)
			var v int
			_ = c.Get(ctx, "shared", &v)
			_ = c.Del(ctx, "other")
		}(i)
	}
	wg.Wait()

	ok, err := c.Exists(ctx, "shared")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	var v string
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrMiss)
	ok, _ := c.Exists(ctx, "k")
	assert.False(t, ok)
}
