package utils

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qalamhq/qalam/config"
)

const defaultCacheTTL = time.Hour

// Cache is a best-effort Redis-backed response cache. A nil *Cache is
// valid and disables caching entirely; every operation degrades to a miss
// on any backend error so reads never depend on Redis availability.
type Cache struct {
	rc *redis.Client
}

// NewCache builds a cache client from configuration.
func NewCache(cfg config.AppConfig) *Cache {
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil && Sugar != nil {
		Sugar.Warnf("redis unreachable, caching degrades to miss: %v", err)
	}
	return &Cache{rc: rc}
}

// GetBytes returns cached bytes for a key.
func (c *Cache) GetBytes(key string) ([]byte, bool) {
	if c == nil || c.rc == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

// SetJSON marshals v and stores the JSON bytes under key.
func (c *Cache) SetJSON(key string, v interface{}, ttl time.Duration) {
	if c == nil || c.rc == nil {
		return
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.rc.Set(ctx, key, b, ttl).Err(); err != nil && Sugar != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// InvalidatePrefix deletes keys matching the prefix using SCAN.
func (c *Cache) InvalidatePrefix(prefix string) {
	if c == nil || c.rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var cursor uint64
	for i := 0; i < 10; i++ { // bound rounds to avoid long loops
		keys, cur, err := c.rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			return
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := c.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			_, _ = pipe.Exec(ctx)
		}
		if cursor == 0 {
			return
		}
	}
}
