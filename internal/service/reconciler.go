package service

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seatgrid/seatgrid/internal/model"
)

// ─── Contracts ──────────────────────────────────────────────

// ClaimSweeper is the lock-store surface the reconciler needs: the scan for
// aged claims plus the release primitive it shares with the coordinator.
type ClaimSweeper interface {
	LockStore

	// ScanStale returns the seats whose claim is older than now − threshold.
	ScanStale(ctx context.Context, eventID int64, threshold time.Duration) ([]model.SeatRef, error)
}

// AvailabilityReader is the seat-store read used to separate ghosts from
// claims that back real bookings.
type AvailabilityReader interface {
	FetchAvailable(ctx context.Context, eventID int64) ([]model.SeatRef, error)
}

// EventLister enumerates the events worth sweeping.
type EventLister interface {
	ListActiveEventIDs(ctx context.Context) ([]int64, error)
}

// ─── Reconciler ─────────────────────────────────────────────

// Reconciler releases ghost claims: lock-store entries whose owning booking
// died between claim and commit. A claim is a ghost only if it is BOTH old
// enough to rule out an in-flight booking AND its seat is still AVAILABLE
// in the seat store. The reconciler never writes the seat store and never
// releases a claim backing a BOOKED seat, so it cannot cause double-booking.
type Reconciler struct {
	locks  ClaimSweeper
	seats  AvailabilityReader
	events EventLister

	sweepInterval  time.Duration
	staleThreshold time.Duration
}

// NewReconciler creates the sweeper. staleThreshold must exceed worst-case
// commit + compensation latency; the defaults (60s sweep, 30s stale) leave
// a wide margin over the 5s operation timeout.
func NewReconciler(locks ClaimSweeper, seats AvailabilityReader, events EventLister, sweepInterval, staleThreshold time.Duration) *Reconciler {
	return &Reconciler{
		locks:          locks,
		seats:          seats,
		events:         events,
		sweepInterval:  sweepInterval,
		staleThreshold: staleThreshold,
	}
}

// Run sweeps until ctx is cancelled. One long-lived goroutine per process;
// no per-event timers.
func (r *Reconciler) Run(ctx context.Context) {
	log.Printf("[reconciler] started (sweep every %s, stale after %s)", r.sweepInterval, r.staleThreshold)
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[reconciler] stopped")
			return
		case <-ticker.C:
			if err := r.SweepAll(ctx); err != nil {
				log.Printf("[reconciler] sweep failed: %v", err)
			}
		}
	}
}

// SweepAll sweeps every active event, a few in parallel. Per-event failures
// are logged and skipped — the next sweep retries them.
func (r *Reconciler) SweepAll(ctx context.Context) error {
	ids, err := r.events.ListActiveEventIDs(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := r.SweepEvent(gctx, id); err != nil {
				log.Printf("[reconciler] sweep of event %d failed: %v", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// SweepEvent releases the ghost claims of one event.
func (r *Reconciler) SweepEvent(ctx context.Context, eventID int64) error {
	stale, err := r.locks.ScanStale(ctx, eventID, r.staleThreshold)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	available, err := r.seats.FetchAvailable(ctx, eventID)
	if err != nil {
		return err
	}

	ghosts := intersect(stale, available)
	if len(ghosts) == 0 {
		return nil
	}

	if err := r.locks.Release(ctx, eventID, ghosts); err != nil {
		return err
	}
	log.Printf("[reconciler] released %d ghost claim(s) for event %d", len(ghosts), eventID)
	return nil
}

// intersect returns the members of stale that also appear in available,
// preserving stale's order.
func intersect(stale, available []model.SeatRef) []model.SeatRef {
	set := make(map[model.SeatRef]struct{}, len(available))
	for _, ref := range available {
		set[ref] = struct{}{}
	}
	var out []model.SeatRef
	for _, ref := range stale {
		if _, ok := set[ref]; ok {
			out = append(out, ref)
		}
	}
	return out
}
