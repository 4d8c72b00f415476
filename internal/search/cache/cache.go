// Package cache provides a Redis-backed query result cache with TTL-based
// eviction and singleflight deduplication of concurrent identical queries.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/search"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/config"
	pkgredis "github.com/thetaroot/blog-luistravels-website-sub000/pkg/redis"
)

const keyPrefix = "contentintel:search:"

// kv is the subset of the Redis client the cache depends on.
type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// QueryCache memoises search results in Redis. Entries expire after the
// configured TTL, so the cache is bounded by construction; a rebuild also
// invalidates everything explicitly.
type QueryCache struct {
	client kv
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, req search.Request) ([]search.Result, bool) {
	results, ok := c.lookup(ctx, c.buildKey(req))
	if ok {
		c.hits.Add(1)
		c.logger.Debug("cache hit", "query", req.Query)
	} else {
		c.misses.Add(1)
	}
	return results, ok
}

// lookup fetches and decodes a cached entry without touching hit/miss
// counters, so callers decide how a lookup is accounted.
func (c *QueryCache) lookup(ctx context.Context, key string) ([]search.Result, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var results []search.Result
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return results, true
}

func (c *QueryCache) Set(ctx context.Context, req search.Request, results []search.Result) {
	key := c.buildKey(req)
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached results for req, or runs computeFn exactly
// once per key across concurrent callers and caches its output.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	req search.Request,
	computeFn func() ([]search.Result, error),
) ([]search.Result, bool, error) {
	if results, ok := c.Get(ctx, req); ok {
		return results, true, nil
	}
	key := c.buildKey(req)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A concurrent flight may have populated the entry between the
		// outer check and this one. The outer Get already recorded the
		// miss, so this lookup stays out of the counters.
		if results, ok := c.lookup(ctx, key); ok {
			return flightResult{results: results, cached: true}, nil
		}
		results, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, req, results)
		return flightResult{results: results}, nil
	})
	if err != nil {
		return nil, false, err
	}
	fr := val.(flightResult)
	return fr.results, fr.cached, nil
}

type flightResult struct {
	results []search.Result
	cached  bool
}

// Invalidate drops every cached query result. Called after an index rebuild.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating query cache: %w", err)
	}
	c.logger.Info("query cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey derives a stable cache key from the full request: normalised
// query plus the JSON encoding of filters, sort, and limit.
func (c *QueryCache) buildKey(req search.Request) string {
	normalized := search.Request{
		Query:   strings.Join(strings.Fields(strings.ToLower(req.Query)), " "),
		Filters: req.Filters,
		Sort:    req.Sort,
		Limit:   req.Limit,
	}
	raw, _ := json.Marshal(normalized)
	hash := sha256.Sum256(raw)
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
