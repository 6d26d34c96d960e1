// Package kb holds the expiring cache for external reference material that
// the context assembler mirrors into prompts (knowledge docs with a source
// URL). Entries are owner-scoped and their TTL is renewed on every read, so
// material in active use stays warm and abandoned material ages out.
//
// A Redis backend is used when REDIS_ADDR is configured; otherwise a small
// in-process cache keeps the server bootable without extra infrastructure.
package kb

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the reference-cache surface used by the assembler.
type Cache interface {
	// Get returns the cached content for (userID, key) and whether it was
	// present. A hit renews the entry's TTL.
	Get(ctx context.Context, userID, key string) (string, bool)

	// Set stores content for (userID, key) with the cache's TTL.
	Set(ctx context.Context, userID, key, content string) error

	// Invalidate drops the entry, if any.
	Invalidate(ctx context.Context, userID, key string) error
}

// New picks the backend: Redis when addr is non-empty, in-memory otherwise.
func New(addr string, ttl time.Duration) Cache {
	if addr != "" {
		return NewRedisCache(addr, ttl)
	}
	return NewMemoryCache(ttl)
}

func cacheKey(userID, key string) string {
	return "kbref:" + userID + ":" + key
}

// --- redis backend ---

// RedisCache stores entries in Redis with per-key TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to the given address. Connection problems surface
// lazily on first use; Get treats them as misses.
func NewRedisCache(addr string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, userID, key string) (string, bool) {
	k := cacheKey(userID, key)
	val, err := c.client.Get(ctx, k).Result()
	if err != nil {
		return "", false
	}
	// refresh on read
	_ = c.client.Expire(ctx, k, c.ttl).Err()
	return val, true
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, userID, key, content string) error {
	return c.client.Set(ctx, cacheKey(userID, key), content, c.ttl).Err()
}

// Invalidate implements Cache.
func (c *RedisCache) Invalidate(ctx context.Context, userID, key string) error {
	return c.client.Del(ctx, cacheKey(userID, key)).Err()
}

// --- in-memory backend ---

type memEntry struct {
	content   string
	expiresAt time.Time
}

// MemoryCache is a mutex-guarded map with lazy expiry, used when Redis is
// not configured. Suitable for a single-process deployment only.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
	ttl     time.Duration
	now     func() time.Time // test hook
}

// NewMemoryCache builds an empty in-process cache.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, userID, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey(userID, key)
	e, ok := c.entries[k]
	if !ok {
		return "", false
	}
	now := c.now()
	if now.After(e.expiresAt) {
		delete(c.entries, k)
		return "", false
	}
	// refresh on read
	e.expiresAt = now.Add(c.ttl)
	c.entries[k] = e
	return e.content, true
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, userID, key, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(userID, key)] = memEntry{
		content:   content,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Invalidate implements Cache.
func (c *MemoryCache) Invalidate(_ context.Context, userID, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(userID, key))
	return nil
}

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = (*MemoryCache)(nil)
)
