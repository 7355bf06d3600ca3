package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/has99an/gtl-marketplace-search/internal/store"
)

func setup(t *testing.T) (*Cache, store.Adapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	s := store.NewRedisAdapter(client)
	return New(s, time.Minute), s, mr
}

type cachedResult struct {
	Items []string `json:"items"`
	Total int      `json:"total"`
}

func TestGetSet_RoundTrip(t *testing.T) {
	c, _, _ := setup(t)
	ctx := context.Background()

	value := cachedResult{Items: []string{"isbn-1", "isbn-2"}, Total: 2}
	require.NoError(t, c.Set(ctx, PageKey("title", "asc", 1, 20), value))

	var got cachedResult
	require.True(t, c.Get(ctx, PageKey("title", "asc", 1, 20), &got))
	assert.Equal(t, value, got)
}

func TestGet_Miss(t *testing.T) {
	c, _, _ := setup(t)

	var got cachedResult
	assert.False(t, c.Get(context.Background(), PageKey("title", "asc", 9, 20), &got))
}

func TestGet_StoreDownDegradesToMiss(t *testing.T) {
	c, _, mr := setup(t)
	mr.Close()

	var got cachedResult
	assert.False(t, c.Get(context.Background(), StatsKey(), &got))
}

func TestSet_AppliesTTL(t *testing.T) {
	c, _, mr := setup(t)

	require.NoError(t, c.Set(context.Background(), StatsKey(), cachedResult{}))
	assert.Equal(t, time.Minute, mr.TTL(StatsKey()))
}

func TestInvalidateItem_SweepsDerivedResults(t *testing.T) {
	c, s, mr := setup(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, PageKey("title", "asc", 1, 20), cachedResult{}))
	require.NoError(t, c.Set(ctx, PageKey("price", "desc", 3, 50), cachedResult{}))
	require.NoError(t, c.Set(ctx, SearchKey("clean code", "relevance", "desc", 1, 20), cachedResult{}))
	require.NoError(t, c.Set(ctx, StatsKey(), cachedResult{}))
	require.NoError(t, c.Set(ctx, EntryKey("isbn-1"), cachedResult{}))
	require.NoError(t, c.Set(ctx, EntryKey("isbn-2"), cachedResult{}))

	// Authoritative records are out of the blast radius.
	require.NoError(t, s.Set(ctx, "catalog:entry:isbn-1", "kept", 0))

	require.NoError(t, c.InvalidateItem(ctx, "isbn-1"))

	var got cachedResult
	assert.False(t, c.Get(ctx, PageKey("title", "asc", 1, 20), &got))
	assert.False(t, c.Get(ctx, PageKey("price", "desc", 3, 50), &got))
	assert.False(t, c.Get(ctx, SearchKey("clean code", "relevance", "desc", 1, 20), &got))
	assert.False(t, c.Get(ctx, StatsKey(), &got))
	assert.False(t, c.Get(ctx, EntryKey("isbn-1"), &got))

	// A different book's detail entry survives until its own TTL.
	assert.True(t, c.Get(ctx, EntryKey("isbn-2"), &got))
	assert.True(t, mr.Exists("catalog:entry:isbn-1"))
}

func TestSearchKey_Deterministic(t *testing.T) {
	a := SearchKey("clean code", "relevance", "desc", 1, 20)
	b := SearchKey("clean code", "relevance", "desc", 1, 20)
	other := SearchKey("clean code", "relevance", "desc", 2, 20)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
}

func TestNew_DefaultTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c := New(store.NewRedisAdapter(client), 0)
	require.NoError(t, c.Set(context.Background(), StatsKey(), cachedResult{}))
	assert.Equal(t, DefaultTTL, mr.TTL(StatsKey()))
}
