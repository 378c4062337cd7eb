// Package cache adds a Redis read-through layer in front of the daily bar
// range query, which is the hot path behind the dashboard panels.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantrey/stock-data-service/internal/models"
)

// DailyBarSource is the read side the cache fronts
type DailyBarSource interface {
	GetDailyBarRange(tsCode string, from, to time.Time) ([]*models.DailyBar, error)
}

// DailyBarCache decorates a DailyBarSource with Redis caching. A nil client
// bypasses the cache entirely.
type DailyBarCache struct {
	inner DailyBarSource
	rdb   *redis.Client
	ttl   time.Duration
}

// NewDailyBarCache wraps source with a Redis cache. If ttl is zero or
// negative it defaults to 5 minutes.
func NewDailyBarCache(rdb *redis.Client, ttl time.Duration, source DailyBarSource) *DailyBarCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DailyBarCache{inner: source, rdb: rdb, ttl: ttl}
}

// GetDailyBarRange returns cached bars when available, otherwise queries the
// underlying source and stores the result
func (c *DailyBarCache) GetDailyBarRange(ctx context.Context, tsCode string, from, to time.Time) ([]*models.DailyBar, error) {
	if c.rdb == nil {
		return c.inner.GetDailyBarRange(tsCode, from, to)
	}

	key := c.key(tsCode, from, to)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []*models.DailyBar
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Drop the corrupted entry and fall through to the source
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.GetDailyBarRange(tsCode, from, to)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// Invalidate drops all cached ranges for the given ts_codes, called after
// ingest writes new bars
func (c *DailyBarCache) Invalidate(ctx context.Context, tsCodes ...string) {
	if c.rdb == nil {
		return
	}
	seen := map[string]struct{}{}
	for _, code := range tsCodes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		c.deleteByPattern(ctx, fmt.Sprintf("bars:%s:*", code))
	}
}

func (c *DailyBarCache) key(tsCode string, from, to time.Time) string {
	return fmt.Sprintf("bars:%s:%s:%s", tsCode, from.Format("20060102"), to.Format("20060102"))
}

// deleteByPattern is best effort: a stale entry expires via TTL anyway
func (c *DailyBarCache) deleteByPattern(ctx context.Context, pattern string) {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			_ = c.rdb.Del(ctx, keys...).Err()
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}
