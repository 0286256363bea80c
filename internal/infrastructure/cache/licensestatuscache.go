// Package cache provides Redis-backed caches for the product API.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keygate-inc/keygate/internal/application/activation/dto"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

const (
	statusKeyPrefix     = "keygate:status:"
	generationKeyPrefix = "keygate:status-gen:"
	statusTTLJitter     = 10 * time.Second

	// generationTTL only has to outlive any load in flight.
	generationTTL = 24 * time.Hour
)

// setIfGeneration stores ARGV[2] under KEYS[1] for ARGV[3] milliseconds when
// the counter at KEYS[2] still equals ARGV[1]. A missing counter reads as 0.
var setIfGeneration = redis.NewScript(`
local gen = redis.call("GET", KEYS[2]) or "0"
if gen ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// RedisStatusCache stores key status snapshots as JSON strings. Each key has an
// invalidation counter next to its snapshot; a load only lands if the counter
// has not moved since the load began.
type RedisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Interface
}

// NewRedisStatusCache creates a status cache with the given entry lifetime
func NewRedisStatusCache(client *redis.Client, ttl time.Duration, logger logger.Interface) *RedisStatusCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisStatusCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *RedisStatusCache) key(keyID string) string {
	return statusKeyPrefix + keyID
}

func (c *RedisStatusCache) generationKey(keyID string) string {
	return generationKeyPrefix + keyID
}

// Get returns nil, nil on a miss
func (c *RedisStatusCache) Get(ctx context.Context, keyID string) (*dto.KeyStatusSnapshot, error) {
	data, err := c.client.Get(ctx, c.key(keyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status from cache: %w", err)
	}

	var s dto.KeyStatusSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		// drop the unreadable entry so the next read reloads it
		c.client.Del(ctx, c.key(keyID))
		return nil, fmt.Errorf("failed to decode cached status: %w", err)
	}
	return &s, nil
}

// Generation returns the invalidation counter of keyID
func (c *RedisStatusCache) Generation(ctx context.Context, keyID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(keyID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read status generation: %w", err)
	}
	return gen, nil
}

// SetIfGeneration stores the snapshot with a jittered TTL, so entries loaded
// together do not expire together. Nothing is stored when keyID was
// invalidated after gen was read.
func (c *RedisStatusCache) SetIfGeneration(ctx context.Context, keyID string, gen int64, s *dto.KeyStatusSnapshot) (bool, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("failed to marshal status: %w", err)
	}
	ttl := c.ttl + time.Duration(rand.Int64N(int64(statusTTLJitter)))
	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{c.key(keyID), c.generationKey(keyID)},
		strconv.FormatInt(gen, 10), data, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to store status in cache: %w", err)
	}
	if stored == 0 {
		c.logger.Debugw("stale status load dropped", "license_key_id", keyID, "generation", gen)
	}
	return stored == 1, nil
}

// Invalidate drops the entry for keyID and bumps its counter
func (c *RedisStatusCache) Invalidate(ctx context.Context, keyID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey(keyID))
		pipe.Expire(ctx, c.generationKey(keyID), generationTTL)
		pipe.Del(ctx, c.key(keyID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate status: %w", err)
	}
	c.logger.Debugw("status cache invalidated", "license_key_id", keyID)
	return nil
}
