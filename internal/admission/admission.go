// Package admission implements the advisory remaining-seats counter.
//
// The counter event:{id}:available is a hint, never a proof: zero is a
// sufficient sold-out signal, a positive value proves nothing. The booking
// coordinator reads it only to skip doomed attempts early; the authoritative
// decision is always the seat-store commit.
package admission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the admission counter consumed by the booking coordinator.
type Cache interface {
	// Peek returns the counter value and whether it is present. An absent
	// or unreachable counter disables the fast path; it never rejects.
	Peek(ctx context.Context, eventID int64) (remaining int64, present bool, err error)

	// Decrement atomically subtracts delta. An observed negative result is
	// clamped back to zero and logged — it means the hint drifted below the
	// true remaining count, which is harmless but worth noticing.
	Decrement(ctx context.Context, eventID int64, delta int64) error

	// Seed sets the counter with a TTL. Used by event creation.
	Seed(ctx context.Context, eventID int64, initial int64, ttl time.Duration) error
}

// CounterKey returns the Redis key of the per-event admission counter.
func CounterKey(eventID int64) string {
	return fmt.Sprintf("event:%d:available", eventID)
}

// ─── Redis implementation ───────────────────────────────────

// RedisCache is the Redis-backed admission counter.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates an admission cache over the shared Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Peek(ctx context.Context, eventID int64) (int64, bool, error) {
	val, err := c.client.Get(ctx, CounterKey(eventID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("admission: peek event %d: %w", eventID, err)
	}
	return val, true, nil
}

func (c *RedisCache) Decrement(ctx context.Context, eventID int64, delta int64) error {
	key := CounterKey(eventID)
	val, err := c.client.DecrBy(ctx, key, delta).Result()
	if err != nil {
		return fmt.Errorf("admission: decrement event %d by %d: %w", eventID, delta, err)
	}
	if val < 0 {
		// The hint undershot. Clamp so Peek keeps reporting sold-out rather
		// than a nonsense negative, keeping the key's TTL intact.
		log.Printf("[admission] counter for event %d went negative (%d), clamping to 0", eventID, val)
		if err := c.client.Set(ctx, key, 0, redis.KeepTTL).Err(); err != nil {
			return fmt.Errorf("admission: clamp event %d: %w", eventID, err)
		}
	}
	return nil
}

func (c *RedisCache) Seed(ctx context.Context, eventID int64, initial int64, ttl time.Duration) error {
	if err := c.client.Set(ctx, CounterKey(eventID), initial, ttl).Err(); err != nil {
		return fmt.Errorf("admission: seed event %d: %w", eventID, err)
	}
	return nil
}

// ─── Disabled implementation ────────────────────────────────

// Disabled is the no-op cache wired when ADMISSION_CACHE_ENABLED=false.
// Peek always reports absent, so the coordinator never takes the fast path.
type Disabled struct{}

func (Disabled) Peek(context.Context, int64) (int64, bool, error)          { return 0, false, nil }
func (Disabled) Decrement(context.Context, int64, int64) error             { return nil }
func (Disabled) Seed(context.Context, int64, int64, time.Duration) error   { return nil }
