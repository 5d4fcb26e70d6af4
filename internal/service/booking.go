// Package service contains the core business logic of the seat inventory
// system: the booking coordinator, the event initializer and the reconciler.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/seatgrid/seatgrid/internal/admission"
	"github.com/seatgrid/seatgrid/internal/model"
	"github.com/seatgrid/seatgrid/internal/strategy"
)

// ─── Errors ─────────────────────────────────────────────────

var (
	// ErrInvalidRequest: empty user id, no seats, or blank seat labels.
	ErrInvalidRequest = errors.New("invalid booking request")

	// ErrSoldOut: the admission counter reads zero.
	ErrSoldOut = errors.New("event is sold out")

	// ErrInsufficientCapacity: fewer seats remain than were requested.
	ErrInsufficientCapacity = errors.New("not enough seats remaining")

	// ErrSeatsClaimed: the gatekeeper found at least one requested seat
	// already claimed by another in-flight booking.
	ErrSeatsClaimed = errors.New("one or more seats already claimed")

	// ErrLockStoreUnavailable: the claim could not be performed at all.
	// The coordinator never proceeds to commit after an ambiguous claim.
	ErrLockStoreUnavailable = errors.New("lock store unavailable")
)

// ─── Contracts ──────────────────────────────────────────────

// LockStore is the gatekeeper surface the coordinator needs.
type LockStore interface {
	// TryClaim atomically claims all seats or none. (false, nil) means a
	// competing booking holds at least one of them.
	TryClaim(ctx context.Context, eventID int64, refs []model.SeatRef, now time.Time) (bool, error)

	// Release drops claims. Idempotent; absent fields are ignored.
	Release(ctx context.Context, eventID int64, refs []model.SeatRef) error
}

// ─── BookingService ─────────────────────────────────────────

// BookingResult is the success payload of a booking.
type BookingResult struct {
	SeatCount int `json:"seatCount"`
}

// BookingService is the stateless booking coordinator.
//
// Protocol per request:
//
//	validate → admission fast path → gatekeeper claim → authoritative commit
//
// The gatekeeper is the only global serialization point: for overlapping
// seat sets at most one TryClaim returns true, so at most one request
// reaches commit for any given seat. Everything after a successful claim is
// straight-line code — any exit that is not a committed booking releases
// the claim exactly once, and the reconciler backstops releases that fail.
type BookingService struct {
	locks     LockStore
	cache     admission.Cache
	commit    strategy.Strategy
	opTimeout time.Duration
}

// NewBookingService creates a booking coordinator.
func NewBookingService(locks LockStore, cache admission.Cache, commit strategy.Strategy, opTimeout time.Duration) *BookingService {
	return &BookingService{
		locks:     locks,
		cache:     cache,
		commit:    commit,
		opTimeout: opTimeout,
	}
}

// BookSeats attempts to book the given seats for userID. It returns the
// booked seat count on success, or one of the taxonomy errors (this
// package's sentinels plus the strategy package's commit conflicts).
//
// There are no retries here. Any conflict error means "another request won";
// a well-behaved client may simply try different seats.
func (s *BookingService) BookSeats(ctx context.Context, eventID int64, userID string, seats []model.SeatRef) (*BookingResult, error) {
	// ── Step 1: Validate & normalize ────────────────────
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidRequest)
	}
	refs := model.DedupeSeatRefs(seats)
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no seats requested", ErrInvalidRequest)
	}
	for _, ref := range refs {
		if ref.Row == "" || ref.Col == "" {
			return nil, fmt.Errorf("%w: blank seat label", ErrInvalidRequest)
		}
	}

	// ── Step 2: Admission fast path ─────────────────────
	// Advisory only: a zero counter rejects cheaply, but an absent or
	// unreachable counter must never reject — the commit decides.
	remaining, present, err := s.cache.Peek(ctx, eventID)
	switch {
	case err != nil:
		log.Printf("[booking] admission peek failed for event %d, skipping fast path: %v", eventID, err)
	case !present:
		// No counter — proceed to the gatekeeper.
	case remaining == 0:
		return nil, ErrSoldOut
	case remaining < int64(len(refs)):
		return nil, fmt.Errorf("%w: %d remaining, %d requested", ErrInsufficientCapacity, remaining, len(refs))
	}

	// ── Step 3: Gatekeeper claim ────────────────────────
	claimCtx, cancelClaim := context.WithTimeout(ctx, s.opTimeout)
	claimed, err := s.locks.TryClaim(claimCtx, eventID, refs, time.Now())
	cancelClaim()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockStoreUnavailable, err)
	}
	if !claimed {
		// Lost the race without touching the seat store at all.
		return nil, ErrSeatsClaimed
	}

	// ── Steps 4–5: Commit, with exactly-once compensation ──
	// From here every exit path that did not commit must release the claim:
	// commit failures, panics, and caller cancellation all funnel through
	// this one deferred release. context.WithoutCancel so a cancelled
	// request still compensates before the error surfaces.
	committed := false
	defer func() {
		if !committed {
			s.compensate(context.WithoutCancel(ctx), eventID, refs)
		}
	}()

	commitCtx, cancelCommit := context.WithTimeout(ctx, s.opTimeout)
	defer cancelCommit()
	if err := s.commit.Commit(commitCtx, eventID, userID, refs); err != nil {
		return nil, err
	}
	committed = true

	// The claims stay in the lock store on purpose: they now mirror BOOKED
	// rows, the reconciler ignores them, and the key TTL retires them.

	// Best-effort counter update; the hint may lag, never the other way
	// around for long (the reconciler does not touch it, commits do).
	if err := s.cache.Decrement(context.WithoutCancel(ctx), eventID, int64(len(refs))); err != nil {
		log.Printf("[booking] admission decrement failed for event %d: %v", eventID, err)
	}

	log.Printf("[booking] ✓ booked %d seat(s) of event %d for user %s via %s",
		len(refs), eventID, userID, s.commit.Name())
	return &BookingResult{SeatCount: len(refs)}, nil
}

// compensate releases a claim after a failed commit. Failures are logged,
// not propagated: the reconciler is the authoritative backstop.
func (s *BookingService) compensate(ctx context.Context, eventID int64, refs []model.SeatRef) {
	relCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	if err := s.locks.Release(relCtx, eventID, refs); err != nil {
		log.Printf("[booking] compensation release failed for %d seat(s) of event %d (reconciler will collect): %v",
			len(refs), eventID, err)
	}
}
