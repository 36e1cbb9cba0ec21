package services

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/models"
)

// CacheService stores finished search results keyed by portal and query.
// Redis is preferred; an in-memory map takes over when Redis is absent or
// misbehaving so caching never becomes a hard dependency.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger

	memCache map[string]cacheItem
	memMutex sync.RWMutex
}

type cacheItem struct {
	value     string
	expiresAt time.Time
}

// NewCacheService creates a new cache service
func NewCacheService(client *redis.Client, ttl time.Duration, logger *logrus.Logger) CacheServiceInterface {
	return &CacheService{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		memCache: make(map[string]cacheItem),
	}
}

// SearchKey derives the cache key for one search: the portal name plus a
// stable hash over the query's populated fields and the limit. Field order
// never affects the key.
func SearchKey(portal string, query *models.SearchQuery, limit int) string {
	values := query.FieldValues()
	fields := make([]string, 0, len(values))
	for name, value := range values {
		fields = append(fields, name+"="+strings.ToLower(strings.TrimSpace(value)))
	}
	sort.Strings(fields)

	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d", strings.Join(fields, "&"), limit)
	return fmt.Sprintf("search:%s:%016x", portal, h.Sum64())
}

// GetResult retrieves a cached search result
func (c *CacheService) GetResult(ctx context.Context, key string) (*models.SearchResult, bool) {
	raw, ok := c.get(ctx, key)
	if !ok {
		return nil, false
	}
	var result models.SearchResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Corrupt cache entry, dropping")
		_ = c.Delete(ctx, key)
		return nil, false
	}
	result.Cached = true
	return &result, true
}

// SetResult stores a search result
func (c *CacheService) SetResult(ctx context.Context, key string, result *models.SearchResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return c.set(ctx, key, string(raw))
}

func (c *CacheService) get(ctx context.Context, key string) (string, bool) {
	if c.client != nil {
		val, err := c.client.Get(ctx, key).Result()
		if err == nil {
			c.logger.WithField("key", key).Debug("Cache hit (Redis)")
			return val, true
		}
		if err != redis.Nil {
			c.logger.WithFields(logrus.Fields{
				"key":   key,
				"error": err.Error(),
			}).Warn("Redis get error, falling back to memory cache")
		}
	}

	c.memMutex.RLock()
	item, exists := c.memCache[key]
	c.memMutex.RUnlock()
	if !exists {
		return "", false
	}
	if time.Now().After(item.expiresAt) {
		c.memMutex.Lock()
		delete(c.memCache, key)
		c.memMutex.Unlock()
		return "", false
	}
	c.logger.WithField("key", key).Debug("Cache hit (memory)")
	return item.value, true
}

func (c *CacheService) set(ctx context.Context, key, value string) error {
	if c.client != nil {
		err := c.client.Set(ctx, key, value, c.ttl).Err()
		if err == nil {
			return nil
		}
		c.logger.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Redis set error, falling back to memory cache")
	}

	c.memMutex.Lock()
	c.memCache[key] = cacheItem{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.memMutex.Unlock()
	return nil
}

// Delete removes one cached entry
func (c *CacheService) Delete(ctx context.Context, key string) error {
	if c.client != nil {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.logger.WithFields(logrus.Fields{
				"key":   key,
				"error": err.Error(),
			}).Warn("Redis delete error")
		}
	}
	c.memMutex.Lock()
	delete(c.memCache, key)
	c.memMutex.Unlock()
	return nil
}

// Clear clears all cache entries
func (c *CacheService) Clear(ctx context.Context) error {
	if c.client != nil {
		if err := c.client.FlushDB(ctx).Err(); err != nil {
			c.logger.WithField("error", err.Error()).Warn("Redis clear error")
		}
	}
	c.memMutex.Lock()
	c.memCache = make(map[string]cacheItem)
	c.memMutex.Unlock()
	c.logger.Info("Cache cleared")
	return nil
}

// GetStats returns cache statistics
func (c *CacheService) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	if c.client != nil {
		info, err := c.client.Info(ctx, "memory").Result()
		if err == nil {
			stats["redis"] = map[string]interface{}{
				"available": true,
				"info":      info,
			}
		} else {
			stats["redis"] = map[string]interface{}{
				"available": false,
				"error":     err.Error(),
			}
		}
	} else {
		stats["redis"] = map[string]interface{}{
			"available": false,
		}
	}

	c.memMutex.RLock()
	memSize := len(c.memCache)
	c.memMutex.RUnlock()
	stats["memory"] = map[string]interface{}{
		"size": memSize,
		"ttl":  c.ttl.String(),
	}
	return stats, nil
}

// Health returns cache health status
func (c *CacheService) Health() map[string]interface{} {
	health := make(map[string]interface{})

	if c.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.client.Ping(ctx).Err(); err != nil {
			health["redis"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			health["redis"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	} else {
		health["redis"] = map[string]interface{}{
			"status": "disabled",
		}
	}
	health["memory"] = map[string]interface{}{
		"status": "healthy",
	}
	return health
}

// StartCleanupRoutine starts a goroutine to periodically drop expired
// memory-cache entries.
func (c *CacheService) StartCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			c.memMutex.Lock()
			now := time.Now()
			for key, item := range c.memCache {
				if now.After(item.expiresAt) {
					delete(c.memCache, key)
				}
			}
			c.memMutex.Unlock()
		}
	}()
}
