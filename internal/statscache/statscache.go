// Package statscache is an optional Redis cache in front of the promo-stats
// counters. The database stays the source of truth; the cache only absorbs
// the widget polling on busy offer pages. All methods are safe on a nil
// *Cache, which is what you get when REDIS_ADDR is not configured.
package statscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/whpcodes/promo-directory/internal/storage"
)

const ttl = 60 * time.Second

// Cache wraps a Redis client for stats lookups.
type Cache struct {
	rdb *redis.Client
}

// New connects to Redis at addr, or returns nil when addr is empty.
func New(addr string) *Cache {
	if addr == "" {
		return nil
	}
	return &Cache{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

// Ping verifies the connection.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Get returns cached stats for the filter, if present.
func (c *Cache) Get(ctx context.Context, filter storage.StatsFilter) (*storage.Stats, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key(filter)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("stats cache read failed")
		}
		return nil, false
	}
	var stats storage.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

// Set stores stats for the filter with a short TTL.
func (c *Cache) Set(ctx context.Context, filter storage.StatsFilter, stats *storage.Stats) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(filter), raw, ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("stats cache write failed")
	}
}

// InvalidateEvent drops cache entries a new tracking event would stale.
func (c *Cache) InvalidateEvent(ctx context.Context, whopID, promoCodeID, path string) {
	if c == nil {
		return
	}
	var keys []string
	if whopID != "" {
		keys = append(keys, key(storage.StatsFilter{WhopID: whopID}))
	}
	if promoCodeID != "" {
		keys = append(keys, key(storage.StatsFilter{PromoCodeID: promoCodeID}))
	}
	if path != "" {
		keys = append(keys, key(storage.StatsFilter{Path: path}))
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Msg("stats cache invalidation failed")
	}
}

func key(filter storage.StatsFilter) string {
	return "promostats:w=" + filter.WhopID + ":p=" + filter.PromoCodeID + ":u=" + filter.Path
}
