// README: Image URL caches (in-process go-cache with a size cap, or shared Redis).
package images

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores URL lists for a fixed TTL. Misses and backend errors look the same to callers.
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool)
	Set(ctx context.Context, key string, urls []string)
}

// MemoryCache is a TTL cache that evicts the entry closest to expiry once full.
type MemoryCache struct {
	mu         sync.Mutex
	items      *gocache.Cache
	ttl        time.Duration
	maxEntries int
}

func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	cleanup := ttl
	if cleanup > 10*time.Minute {
		cleanup = 10 * time.Minute
	}
	return &MemoryCache{items: gocache.New(ttl, cleanup), ttl: ttl, maxEntries: maxEntries}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]string, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}
	urls, ok := v.([]string)
	return urls, ok
}

func (c *MemoryCache) Set(_ context.Context, key string, urls []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 {
		if _, exists := c.items.Get(key); !exists {
			c.items.DeleteExpired()
			for c.items.ItemCount() >= c.maxEntries {
				if !c.evictSoonest() {
					break
				}
			}
		}
	}
	c.items.Set(key, urls, c.ttl)
}

func (c *MemoryCache) evictSoonest() bool {
	var victim string
	var soonest int64
	for k, item := range c.items.Items() {
		if victim == "" || item.Expiration < soonest {
			victim, soonest = k, item.Expiration
		}
	}
	if victim == "" {
		return false
	}
	c.items.Delete(victim)
	return true
}

func (c *MemoryCache) Len() int { return c.items.ItemCount() }

const redisKeyPrefix = "voyage:images:"

// RedisCache shares lookups across API instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger.Named("images.cache")}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool) {
	b, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var urls []string
	if err := json.Unmarshal(b, &urls); err != nil {
		return nil, false
	}
	return urls, true
}

func (c *RedisCache) Set(ctx context.Context, key string, urls []string) {
	b, err := json.Marshal(urls)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, b, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set", zap.String("key", key), zap.Error(err))
	}
}
