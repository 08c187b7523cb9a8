// Package cache is the TTL store for assembled metric records and the
// stale-VWAP side-cache.
//
// Three key namespaces share one redis substrate: metrics/ and combined/
// hold full response records for the short TTL, stale/ holds the last
// successful VWAP per market for the long TTL as the tier-4 fallback.
// Combined records live in their own namespace so a composite key can
// never collide with a single-venue one.
//
// The cache may make the service faster, never wrong: when no redis URL
// is configured it degrades to a no-op, read failures and corrupt entries
// count as misses, and write failures are logged and swallowed. Writes
// are last-writer-wins; concurrent misses doing redundant upstream work
// is accepted rather than coordinated.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"bellwether/internal/telemetry"
	"bellwether/pkg/types"
)

const (
	nsMetrics  = "metrics"
	nsCombined = "combined"
	nsStale    = "stale"
)

// Cache wraps the redis substrate. With a nil client every read is a
// miss and every write vanishes.
type Cache struct {
	rdb    *redis.Client
	tel    *telemetry.Metrics
	logger *slog.Logger
}

// New connects to the redis instance at redisURL. An empty URL disables
// caching instead of failing: the service still answers, it just refetches
// every time.
func New(redisURL string, tel *telemetry.Metrics, logger *slog.Logger) (*Cache, error) {
	logger = logger.With("component", "cache")
	if redisURL == "" {
		logger.Warn("redis url not configured, caching disabled")
		return &Cache{tel: tel, logger: logger}, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Cache{rdb: redis.NewClient(opt), tel: tel, logger: logger}, nil
}

// Enabled reports whether a substrate is connected.
func (c *Cache) Enabled() bool {
	return c.rdb != nil
}

// Close releases the redis connection.
func (c *Cache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// GetMetrics returns the cached per-market record, or ok=false on any
// kind of miss.
func (c *Cache) GetMetrics(ctx context.Context, venue types.Venue, id string) (*types.MarketMetrics, bool) {
	return readJSON[types.MarketMetrics](c, ctx, nsMetrics, metricsKey(venue, id))
}

// SetMetrics stores the per-market record for the short TTL.
func (c *Cache) SetMetrics(ctx context.Context, venue types.Venue, id string, m *types.MarketMetrics) {
	writeJSON(c, ctx, nsMetrics, metricsKey(venue, id), m, types.MetricsCacheTTL)
}

// GetCombined returns the cached cross-venue record, or ok=false on any
// kind of miss.
func (c *Cache) GetCombined(ctx context.Context, pmToken, kTicker string) (*types.CombinedMetrics, bool) {
	return readJSON[types.CombinedMetrics](c, ctx, nsCombined, combinedKey(pmToken, kTicker))
}

// SetCombined stores the cross-venue record for the short TTL.
func (c *Cache) SetCombined(ctx context.Context, pmToken, kTicker string, m *types.CombinedMetrics) {
	writeJSON(c, ctx, nsCombined, combinedKey(pmToken, kTicker), m, types.MetricsCacheTTL)
}

// ReadStaleVWAP returns the last persisted VWAP for the market key, or
// ok=false when none survives.
func (c *Cache) ReadStaleVWAP(ctx context.Context, key string) (*types.StaleVWAP, bool) {
	entry, ok := readJSON[types.StaleVWAP](c, ctx, nsStale, staleKey(key))
	if !ok {
		return nil, false
	}
	return entry, true
}

// WriteStaleVWAP persists the VWAP chosen by the pricer for the long TTL.
func (c *Cache) WriteStaleVWAP(ctx context.Context, key string, entry types.StaleVWAP) {
	writeJSON(c, ctx, nsStale, staleKey(key), entry, types.StaleVWAPTTL)
}

func metricsKey(venue types.Venue, id string) string {
	return nsMetrics + "/" + string(venue) + "/" + id
}

func combinedKey(pmToken, kTicker string) string {
	return nsCombined + "/" + pmToken + "_" + kTicker
}

func staleKey(key string) string {
	return nsStale + "/" + key
}

// readJSON fetches and decodes one entry. Substrate errors and corrupt
// payloads are logged misses, never surfaced.
func readJSON[T any](c *Cache, ctx context.Context, namespace, key string) (*T, bool) {
	if c.rdb == nil {
		c.tel.CacheOp(namespace, "get", telemetry.OutcomeMiss)
		return nil, false
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
		}
		c.tel.CacheOp(namespace, "get", telemetry.OutcomeMiss)
		return nil, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("cache entry corrupt, treating as miss", "key", key, "error", err)
		c.tel.CacheOp(namespace, "get", telemetry.OutcomeMiss)
		return nil, false
	}

	c.tel.CacheOp(namespace, "get", telemetry.OutcomeHit)
	return &v, true
}

// writeJSON encodes and stores one entry. Failures are logged and
// swallowed so a broken substrate never degrades responses.
func writeJSON(c *Cache, ctx context.Context, namespace, key string, v any, ttl time.Duration) {
	if c.rdb == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache marshal failed, skipping write", "key", key, "error", err)
		c.tel.CacheOp(namespace, "set", telemetry.OutcomeError)
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
		c.tel.CacheOp(namespace, "set", telemetry.OutcomeError)
		return
	}
	c.tel.CacheOp(namespace, "set", telemetry.OutcomeOK)
}
