package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is returned when a key is absent or expired
var ErrCacheMiss = errors.New("key not found")

// cacheKeyPrefix namespaces every key the service writes
const cacheKeyPrefix = "tender-ingest:"

// CacheService implements caching functionality
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger

	// In-memory fallback cache when Redis is not available
	memCache map[string]cacheItem
	memMutex sync.RWMutex

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheItem struct {
	value     string
	expiresAt time.Time
}

// NewCacheService creates a new cache service. A nil client keeps everything
// in memory.
func NewCacheService(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *CacheService {
	return &CacheService{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		memCache: make(map[string]cacheItem),
	}
}

// Get retrieves a value from cache
func (c *CacheService) Get(ctx context.Context, key string) (string, error) {
	key = cacheKeyPrefix + key

	// Try Redis first if available
	if c.client != nil {
		val, err := c.client.Get(ctx, key).Result()
		if err == nil {
			c.hits.Add(1)
			c.logger.WithField("key", key).Debug("Cache hit (Redis)")
			return val, nil
		}
		if !errors.Is(err, redis.Nil) {
			c.logger.WithFields(logrus.Fields{
				"key":   key,
				"error": err.Error(),
			}).Warn("Redis get error, falling back to memory cache")
		}
	}

	// Fallback to memory cache
	c.memMutex.RLock()
	item, exists := c.memCache[key]
	c.memMutex.RUnlock()

	if !exists {
		c.misses.Add(1)
		return "", ErrCacheMiss
	}

	if time.Now().After(item.expiresAt) {
		// Item expired, remove it
		c.memMutex.Lock()
		delete(c.memCache, key)
		c.memMutex.Unlock()
		c.misses.Add(1)
		return "", ErrCacheMiss
	}

	c.hits.Add(1)
	c.logger.WithField("key", key).Debug("Cache hit (memory)")
	return item.value, nil
}

// Set stores a value in cache with TTL
func (c *CacheService) Set(ctx context.Context, key string, value string) error {
	key = cacheKeyPrefix + key

	// Try Redis first if available
	if c.client != nil {
		err := c.client.Set(ctx, key, value, c.ttl).Err()
		if err == nil {
			c.logger.WithField("key", key).Debug("Cache set (Redis)")
			return nil
		}
		c.logger.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Redis set error, falling back to memory cache")
	}

	// Fallback to memory cache
	c.memMutex.Lock()
	c.memCache[key] = cacheItem{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.memMutex.Unlock()

	c.logger.WithField("key", key).Debug("Cache set (memory)")
	return nil
}

// Delete removes a value from cache
func (c *CacheService) Delete(ctx context.Context, key string) error {
	key = cacheKeyPrefix + key

	if c.client != nil {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.logger.WithFields(logrus.Fields{
				"key":   key,
				"error": err.Error(),
			}).Warn("Redis delete error")
		}
	}

	// Also remove from memory cache
	c.memMutex.Lock()
	delete(c.memCache, key)
	c.memMutex.Unlock()

	c.logger.WithField("key", key).Debug("Cache delete")
	return nil
}

// Clear removes every key under the service prefix. Other keys in the Redis
// database are left alone.
func (c *CacheService) Clear(ctx context.Context) error {
	if c.client != nil {
		iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				c.logger.WithField("error", err.Error()).Warn("Redis clear error")
			}
		}
		if err := iter.Err(); err != nil {
			c.logger.WithField("error", err.Error()).Warn("Redis scan error")
		}
	}

	// Clear memory cache
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
		size, err := c.client.DBSize(ctx).Result()
		if err == nil {
			stats["redis"] = map[string]interface{}{
				"available": true,
				"keys":      size,
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
	stats["hits"] = c.hits.Load()
	stats["misses"] = c.misses.Load()

	return stats, nil
}

// Health returns cache service health status
func (c *CacheService) Health() map[string]interface{} {
	if c.client == nil {
		return map[string]interface{}{
			"status":  "healthy",
			"backend": "memory",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		// the memory fallback keeps serving
		return map[string]interface{}{
			"status":  "degraded",
			"backend": "memory",
			"error":   err.Error(),
		}
	}
	return map[string]interface{}{
		"status":  "healthy",
		"backend": "redis",
	}
}

// cleanupExpired removes expired items from memory cache
func (c *CacheService) cleanupExpired() {
	c.memMutex.Lock()
	defer c.memMutex.Unlock()

	now := time.Now()
	for key, item := range c.memCache {
		if now.After(item.expiresAt) {
			delete(c.memCache, key)
		}
	}
}

// StartCleanupRoutine periodically cleans expired items until ctx is done
func (c *CacheService) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.cleanupExpired()
			}
		}
	}()
}
