package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/publicvector/courtsearch/internal/models"
)

func newMemoryCache(t *testing.T, ttl time.Duration) CacheServiceInterface {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewCacheService(nil, ttl, logger)
}

func TestSearchKeyStability(t *testing.T) {
	q1 := &models.SearchQuery{LastName: "Smith", FirstName: "John"}
	q2 := &models.SearchQuery{FirstName: "John", LastName: "Smith"}

	// Same criteria must hash identically regardless of construction order.
	require.Equal(t, SearchKey("oscn", q1, 10), SearchKey("oscn", q2, 10))

	// Portal, criteria and limit all partition the key space.
	require.NotEqual(t, SearchKey("oscn", q1, 10), SearchKey("courtconnect", q1, 10))
	require.NotEqual(t, SearchKey("oscn", q1, 10), SearchKey("oscn", q1, 20))
	q3 := &models.SearchQuery{LastName: "Smith"}
	require.NotEqual(t, SearchKey("oscn", q1, 10), SearchKey("oscn", q3, 10))

	// Case and padding of values does not split the cache.
	q4 := &models.SearchQuery{LastName: "  SMITH ", FirstName: "john"}
	require.Equal(t, SearchKey("oscn", q1, 10), SearchKey("oscn", q4, 10))
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newMemoryCache(t, time.Minute)
	ctx := context.Background()

	key := SearchKey("oscn", &models.SearchQuery{LastName: "Smith"}, 10)
	_, found := cache.GetResult(ctx, key)
	require.False(t, found)

	stored := &models.SearchResult{
		SearchID: "s-1",
		Portal:   "oscn",
		Status:   models.StatusReady,
		Records:  []models.CaseRecord{{CaseNumber: "CJ-2024-1"}},
	}
	require.NoError(t, cache.SetResult(ctx, key, stored))

	got, found := cache.GetResult(ctx, key)
	require.True(t, found)
	require.True(t, got.Cached, "replayed results must be marked cached")
	require.Equal(t, "s-1", got.SearchID)
	require.Len(t, got.Records, 1)
}

func TestCacheExpiry(t *testing.T) {
	cache := newMemoryCache(t, 10*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, cache.SetResult(ctx, "k", &models.SearchResult{SearchID: "s-2"}))
	time.Sleep(30 * time.Millisecond)

	_, found := cache.GetResult(ctx, "k")
	require.False(t, found)
}

func TestCacheDeleteAndClear(t *testing.T) {
	cache := newMemoryCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetResult(ctx, "a", &models.SearchResult{SearchID: "a"}))
	require.NoError(t, cache.SetResult(ctx, "b", &models.SearchResult{SearchID: "b"}))

	require.NoError(t, cache.Delete(ctx, "a"))
	_, found := cache.GetResult(ctx, "a")
	require.False(t, found)
	_, found = cache.GetResult(ctx, "b")
	require.True(t, found)

	require.NoError(t, cache.Clear(ctx))
	_, found = cache.GetResult(ctx, "b")
	require.False(t, found)
}

func TestCacheStatsAndHealth(t *testing.T) {
	cache := newMemoryCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetResult(ctx, "a", &models.SearchResult{}))
	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)

	mem, ok := stats["memory"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, 1, mem["size"])

	health := cache.Health()
	redisHealth, ok := health["redis"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "disabled", redisHealth["status"])
}
