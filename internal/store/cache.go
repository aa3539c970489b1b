package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomasperezponisio/tp2-clinica-online/internal/planner"
)

// ReservedSource supplies the reserved-slot snapshot for a specialist.
type ReservedSource interface {
	ReservedSlots(ctx context.Context, specialistID string) (planner.ReservedSet, error)
}

// ReservedCache is an optional Redis read-through cache over ReservedSource.
// A nil client or non-positive TTL degrades to direct reads.
type ReservedCache struct {
	source ReservedSource
	redis  *redis.Client
	ttl    time.Duration
}

// NewReservedCache wraps source with Redis caching.
func NewReservedCache(source ReservedSource, client *redis.Client, ttl time.Duration) *ReservedCache {
	return &ReservedCache{source: source, redis: client, ttl: ttl}
}

func cacheKey(specialistID string) string {
	return "reserved:" + specialistID
}

// ReservedSlots returns the cached snapshot when present, falling back to
// the source and caching the result. Cache errors are swallowed; a booking
// system must keep working when Redis is down.
func (c *ReservedCache) ReservedSlots(ctx context.Context, specialistID string) (planner.ReservedSet, error) {
	if c.redis == nil || c.ttl <= 0 {
		return c.source.ReservedSlots(ctx, specialistID)
	}

	key := cacheKey(specialistID)
	if val, err := c.redis.Get(ctx, key).Result(); err == nil {
		var keys []string
		if err := json.Unmarshal([]byte(val), &keys); err == nil {
			reserved := make(planner.ReservedSet, len(keys))
			for _, k := range keys {
				reserved[k] = struct{}{}
			}
			return reserved, nil
		}
	}

	reserved, err := c.source.ReservedSlots(ctx, specialistID)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(reserved))
	for k := range reserved {
		keys = append(keys, k)
	}
	if data, err := json.Marshal(keys); err == nil {
		_ = c.redis.Set(ctx, key, data, c.ttl).Err()
	}

	return reserved, nil
}

// Invalidate drops the cached snapshot of a specialist. Called after any
// write that changes which slots are occupied.
func (c *ReservedCache) Invalidate(ctx context.Context, specialistID string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, cacheKey(specialistID)).Err()
}
