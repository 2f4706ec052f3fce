// Package cache is a best-effort Redis read-through cache. Every
// method degrades to a no-op on connection failure: a cache outage
// must never fail a request, only make it slower (spec §8, original
// cache.py's fallback behavior).
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/otitou/wap-backend-go/pkg/logging"
)

// Cache wraps a redis client. A nil/disabled Cache behaves as an
// always-miss cache so callers never need a nil check. When Redis is
// unavailable, SetNX falls back to an in-process map so dedupe still
// holds within a single process (SPEC_FULL open-question decision).
type Cache struct {
	client  *redis.Client
	log     *logging.Logger
	enabled bool
	local   sync.Map // key -> expiresAt time.Time
}

// Config configures the Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Open connects to Redis, pinging once. If the ping fails the cache
// runs disabled rather than returning an error, matching the
// original's "don't crash if Redis is down" behavior.
func Open(cfg Config) *Cache {
	log := logging.GetDefault().Component("cache")
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, running without cache", "err", err)
		return &Cache{enabled: false, log: log}
	}
	log.Info("cache connected", "addr", cfg.Addr)
	return &Cache{client: client, enabled: true, log: log}
}

// Enabled reports whether the underlying Redis connection is live.
func (c *Cache) Enabled() bool { return c != nil && c.enabled }

// Key builds a deterministic cache key from a prefix and a canonical
// JSON encoding of data, truncated to a 12-char md5 hash (original's
// _generate_key scheme).
func Key(prefix string, data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(map[string]any, len(data))
	for _, k := range keys {
		ordered[k] = data[k]
	}
	b, _ := json.Marshal(ordered)
	sum := md5.Sum(b)
	return prefix + ":" + hex.EncodeToString(sum[:])[:12]
}

// Get unmarshals a cached value into dest. It reports whether there
// was a hit; any Redis error is treated as a miss.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("cache decode error", "key", key, "err", err)
		return false
	}
	return true
}

// Set stores value under key with the given TTL. Errors are logged
// and swallowed.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache encode error", "key", key, "err", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.log.Warn("cache set error", "key", key, "err", err)
	}
}

// Delete removes a single key.
func (c *Cache) Delete(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Warn("cache delete error", "key", key, "err", err)
	}
}

// DeletePrefix clears every key matching prefix+"*", used to
// invalidate search results after a profile changes.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) {
	if !c.Enabled() {
		return
	}
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("cache scan error", "prefix", prefix, "err", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache clear error", "prefix", prefix, "err", err)
		return
	}
	c.log.Debug("cleared cached keys", "prefix", prefix, "count", len(keys))
}

// SetNX stores a value only if key is absent, returning true if it
// was the one that set it. Used for match-notification dedupe (spec
// SPEC_FULL open-question decision).
func (c *Cache) SetNX(ctx context.Context, key string, ttl time.Duration) bool {
	if c == nil {
		return true
	}
	if !c.Enabled() {
		return c.localSetNX(key, ttl)
	}
	ok, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		c.log.Warn("cache setnx error", "key", key, "err", err)
		return c.localSetNX(key, ttl)
	}
	return ok
}

// localSetNX is the in-process fallback used when Redis is down. It
// claims key if absent or expired, returning whether this call won.
func (c *Cache) localSetNX(key string, ttl time.Duration) bool {
	now := time.Now()
	expiresAt := now.Add(ttl)
	for {
		existing, loaded := c.local.LoadOrStore(key, expiresAt)
		if !loaded {
			return true
		}
		if now.After(existing.(time.Time)) {
			if c.local.CompareAndSwap(key, existing, expiresAt) {
				return true
			}
			continue
		}
		return false
	}
}
