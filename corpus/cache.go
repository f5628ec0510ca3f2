package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ Repository = (*Cached)(nil)

const publishedCachePrefix = "corpus:published:"

// Metrics receives cache hit/miss signals. Implemented by stats.Storage;
// a nil Metrics is valid and ignored.
type Metrics interface {
	CorpusCacheHit()
	CorpusCacheMiss()
}

// Cached is a read-through redis cache in front of another Repository.
// The published set changes rarely compared to how often it is read, so a
// short TTL keeps suggestions fresh without hitting the database on every
// analysis.
type Cached struct {
	inner   Repository
	client  *redis.Client
	ttl     time.Duration
	metrics Metrics
}

// NewCached wraps a repository with a redis cache.
func NewCached(inner Repository, client *redis.Client, ttl time.Duration, metrics Metrics) *Cached {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cached{inner: inner, client: client, ttl: ttl, metrics: metrics}
}

// Published serves from redis when possible, falling through to the inner
// repository on miss or on any redis failure.
func (c *Cached) Published(ctx context.Context, excludeID string) ([]Entry, error) {
	key := publishedCachePrefix + excludeKey(excludeID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err == nil {
			c.recordHit()
			return entries, nil
		}
		// Corrupt cache entry; drop it and refetch.
		c.client.Del(ctx, key)
	}
	c.recordMiss()

	entries, err := c.inner.Published(ctx, excludeID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entries); err == nil {
		// Best effort; a failed SET only costs the next caller a refetch.
		c.client.Set(ctx, key, data, c.ttl)
	}
	return entries, nil
}

// Invalidate drops the cached published sets. Call after publishing or
// unpublishing a document.
func (c *Cached) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, publishedCachePrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan corpus cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate corpus cache: %w", err)
	}
	return nil
}

func (c *Cached) recordHit() {
	if c.metrics != nil {
		c.metrics.CorpusCacheHit()
	}
}

func (c *Cached) recordMiss() {
	if c.metrics != nil {
		c.metrics.CorpusCacheMiss()
	}
}

func excludeKey(excludeID string) string {
	if excludeID == "" {
		return "all"
	}
	return "exclude:" + excludeID
}
