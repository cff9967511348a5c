package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	type entry struct {
		Name  string `json:"name"`
		Price int64  `json:"price"`
	}
	require.NoError(t, cache.SetJSON(ctx, "catalog:product:x", entry{Name: "Rice", Price: 9000}))

	var got entry
	ok, err := cache.GetJSON(ctx, "catalog:product:x", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entry{Name: "Rice", Price: 9000}, got)

	require.NoError(t, cache.Delete(ctx, "catalog:product:x"))
	ok, err = cache.GetJSON(ctx, "catalog:product:x", &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheMiss(t *testing.T) {
	cache := newTestCache(t)
	var got map[string]any
	ok, err := cache.GetJSON(context.Background(), "missing", &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *Cache
	ok, err := cache.GetJSON(context.Background(), "anything", nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, cache.SetJSON(context.Background(), "anything", 1))
	require.NoError(t, cache.Delete(context.Background(), "anything"))
}
