// Package strategy implements the pluggable authoritative-commit disciplines.
//
// All three strategies perform the same state change — status := BOOKED,
// holder := user, inside one seat-store transaction — and differ only in how
// they detect a concurrent writer:
//
//	naive        read-then-write, no protection (measurement baseline)
//	pessimistic  row locks via SELECT ... FOR UPDATE NOWAIT
//	optimistic   update predicated on (status, holder) being unchanged
//
// The gatekeeper already guarantees at most one coordinator per seat, so the
// strategy choice is a performance knob, not a correctness dependency: even
// naive cannot double-book as long as claims precede commits.
package strategy

import (
	"context"
	"errors"
	"log"
	"sort"

	"github.com/seatgrid/seatgrid/internal/model"
	"github.com/seatgrid/seatgrid/internal/repository"
)

// ─── Errors ─────────────────────────────────────────────────

var (
	// ErrSeatsNotFound: at least one requested seat has no row in the store.
	ErrSeatsNotFound = errors.New("one or more requested seats do not exist")

	// ErrSeatsUnavailable: at least one requested seat is already BOOKED.
	ErrSeatsUnavailable = errors.New("one or more requested seats are already booked")

	// ErrVersionConflict: the optimistic predicate matched fewer rows than
	// requested, meaning a seat changed between fetch and update.
	ErrVersionConflict = errors.New("seat state changed during booking")

	// ErrRowLockConflict: the pessimistic NOWAIT lock was unavailable.
	ErrRowLockConflict = errors.New("seats locked by a concurrent booking")
)

// ─── Strategy contract ──────────────────────────────────────

// Strategy commits a booking authoritatively. Implementations convert every
// conflict into one of the typed errors above; no error is retried here.
type Strategy interface {
	Name() string
	Commit(ctx context.Context, eventID int64, userID string, refs []model.SeatRef) error
}

// ─── Registry ───────────────────────────────────────────────

// Constructor builds a strategy over a seat store.
type Constructor func(store repository.SeatStore) Strategy

// DefaultName is used when the configured strategy is unknown.
const DefaultName = "optimistic"

var registry = map[string]Constructor{
	"naive":       func(s repository.SeatStore) Strategy { return &Naive{store: s} },
	"pessimistic": func(s repository.SeatStore) Strategy { return &Pessimistic{store: s} },
	"optimistic":  func(s repository.SeatStore) Strategy { return &Optimistic{store: s} },
}

// New builds the named strategy, falling back to the default on an unknown
// name.
func New(name string, store repository.SeatStore) Strategy {
	ctor, ok := registry[name]
	if !ok {
		log.Printf("[strategy] unknown strategy %q, falling back to %q", name, DefaultName)
		ctor = registry[DefaultName]
	}
	return ctor(store)
}

// Names returns the registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ─── Shared validation ──────────────────────────────────────

// checkFetched asserts that every requested seat was returned and all of
// them are AVAILABLE.
func checkFetched(seats []model.Seat, refs []model.SeatRef) error {
	if len(seats) != len(refs) {
		return ErrSeatsNotFound
	}
	for i := range seats {
		if seats[i].Status != model.SeatAvailable {
			return ErrSeatsUnavailable
		}
	}
	return nil
}
