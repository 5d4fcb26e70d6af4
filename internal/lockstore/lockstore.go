// Package lockstore implements the gatekeeper's claim table in Redis.
//
// Each event owns one hash, event:{id}:seats, whose fields are "row-col"
// seat keys and whose values are claim timestamps (unix milliseconds).
// A field's existence means "some coordinator has claimed this seat".
//
// Correctness of the whole booking pipeline rests on TryClaim being a single
// atomic server-side operation: the check-then-insert runs as one Lua script,
// so no other TryClaim, Release or scan can interleave between the existence
// check and the insert. Emulating the same with two client round-trips would
// reopen the double-booking race.
package lockstore

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seatgrid/seatgrid/internal/model"
)

// tryClaimScript is the atomic check-and-claim.
//
// KEYS[1] — the per-event claim hash.
// ARGV[1] — claim timestamp (unix milliseconds).
// ARGV[2] — key TTL in seconds, attached only if the hash has none yet.
// ARGV[3..] — seat fields ("row-col").
//
// Returns 1 and inserts every field iff none of them exists; otherwise
// returns 0 and writes nothing.
var tryClaimScript = redis.NewScript(`
for i = 3, #ARGV do
  if redis.call('HEXISTS', KEYS[1], ARGV[i]) == 1 then
    return 0
  end
end
for i = 3, #ARGV do
  redis.call('HSET', KEYS[1], ARGV[i], ARGV[1])
end
if redis.call('TTL', KEYS[1]) < 0 then
  redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// ClaimKey returns the Redis key of the per-event claim hash.
func ClaimKey(eventID int64) string {
	return fmt.Sprintf("event:%d:seats", eventID)
}

// Store is the Redis-backed lock store.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a lock store. ttl is the key-level expiry attached to claim
// hashes on first claim (event duration + grace, default 24h).
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// TryClaim atomically claims all the given seats for the event, or none.
//
// Returns (true, nil) when every seat was unclaimed and is now claimed at
// timestamp now. Returns (false, nil) when any seat was already claimed;
// nothing is written in that case. Any transport or server error is returned
// as an error — an ambiguous claim must never be treated as a successful one.
func (s *Store) TryClaim(ctx context.Context, eventID int64, refs []model.SeatRef, now time.Time) (bool, error) {
	if len(refs) == 0 {
		return false, fmt.Errorf("lockstore: try claim with no seats")
	}

	argv := make([]any, 0, len(refs)+2)
	argv = append(argv, now.UnixMilli(), int64(s.ttl.Seconds()))
	for _, ref := range refs {
		argv = append(argv, ref.Key())
	}

	res, err := tryClaimScript.Run(ctx, s.client, []string{ClaimKey(eventID)}, argv...).Int64()
	if err != nil {
		return false, fmt.Errorf("lockstore: try claim event %d: %w", eventID, err)
	}
	return res == 1, nil
}

// Release deletes the given seat fields from the event's claim hash.
// Fields that are already absent are ignored, so Release is idempotent.
func (s *Store) Release(ctx context.Context, eventID int64, refs []model.SeatRef) error {
	if len(refs) == 0 {
		return nil
	}
	fields := make([]string, len(refs))
	for i, ref := range refs {
		fields[i] = ref.Key()
	}
	if err := s.client.HDel(ctx, ClaimKey(eventID), fields...).Err(); err != nil {
		return fmt.Errorf("lockstore: release %d seats of event %d: %w", len(refs), eventID, err)
	}
	return nil
}

// ScanStale returns the seats of the event whose claim timestamp is older
// than now − threshold. HGETALL is a single command, so the snapshot cannot
// observe a half-applied claim.
func (s *Store) ScanStale(ctx context.Context, eventID int64, threshold time.Duration) ([]model.SeatRef, error) {
	entries, err := s.client.HGetAll(ctx, ClaimKey(eventID)).Result()
	if err != nil {
		return nil, fmt.Errorf("lockstore: scan event %d: %w", eventID, err)
	}
	return FilterStale(entries, time.Now(), threshold), nil
}

// FilterStale picks the seat fields of a claim snapshot whose timestamp is
// older than now − threshold. Malformed fields are logged and skipped; they
// can only appear through manual key tampering and the key TTL still bounds
// their lifetime.
func FilterStale(entries map[string]string, now time.Time, threshold time.Duration) []model.SeatRef {
	cutoff := now.Add(-threshold).UnixMilli()
	var stale []model.SeatRef
	for field, value := range entries {
		ts, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			log.Printf("[lockstore] skipping claim field %q: bad timestamp %q", field, value)
			continue
		}
		if ts >= cutoff {
			continue
		}
		ref, err := model.ParseSeatKey(field)
		if err != nil {
			log.Printf("[lockstore] skipping claim field %q: %v", field, err)
			continue
		}
		stale = append(stale, ref)
	}
	return stale
}
