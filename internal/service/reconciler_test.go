package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatgrid/seatgrid/internal/model"
)

// staticAvailability serves a fixed AVAILABLE set per event.
type staticAvailability map[int64][]model.SeatRef

func (s staticAvailability) FetchAvailable(ctx context.Context, eventID int64) ([]model.SeatRef, error) {
	return s[eventID], nil
}

// staticEvents serves a fixed active-event list.
type staticEvents []int64

func (s staticEvents) ListActiveEventIDs(ctx context.Context) ([]int64, error) {
	return s, nil
}

func TestSweepEvent_ReleasesOnlyGhosts(t *testing.T) {
	locks := newMemLockStore()
	ctx := context.Background()
	old := time.Now().Add(-5 * time.Minute)

	// s11: stale claim, seat still AVAILABLE → ghost, must be released.
	// s12: stale claim, seat BOOKED → backs a real booking, must stay.
	// s13: fresh claim → possibly in flight, must stay.
	ok, err := locks.TryClaim(ctx, 1, []model.SeatRef{s11, s12}, old)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = locks.TryClaim(ctx, 1, []model.SeatRef{s13}, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	seats := staticAvailability{1: {s11, s13}}

	rc := NewReconciler(locks, seats, staticEvents{1}, time.Minute, 30*time.Second)
	require.NoError(t, rc.SweepEvent(ctx, 1))

	assert.Equal(t, 2, locks.claimed(1))
	ok, err = locks.TryClaim(ctx, 1, []model.SeatRef{s11}, time.Now())
	require.NoError(t, err)
	assert.True(t, ok, "the ghost seat is claimable again")
	ok, err = locks.TryClaim(ctx, 1, []model.SeatRef{s12}, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "the booked seat's claim survived the sweep")
	ok, err = locks.TryClaim(ctx, 1, []model.SeatRef{s13}, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "the fresh claim survived the sweep")
}

func TestSweepEvent_NoStaleClaimsSkipsSeatStore(t *testing.T) {
	locks := newMemLockStore()
	ctx := context.Background()
	ok, err := locks.TryClaim(ctx, 1, []model.SeatRef{s11}, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	rc := NewReconciler(locks, staticAvailability{}, staticEvents{1}, time.Minute, 30*time.Second)
	require.NoError(t, rc.SweepEvent(ctx, 1))
	assert.Equal(t, 1, locks.claimed(1))
	assert.Zero(t, locks.releases.Load(), "nothing stale, nothing released")
}

func TestSweepAll_CoversEveryActiveEvent(t *testing.T) {
	locks := newMemLockStore()
	ctx := context.Background()
	old := time.Now().Add(-5 * time.Minute)
	for _, eventID := range []int64{1, 2, 3} {
		ok, err := locks.TryClaim(ctx, eventID, []model.SeatRef{s11}, old)
		require.NoError(t, err)
		require.True(t, ok)
	}

	seats := staticAvailability{
		1: {s11},
		2: {s11},
		3: {s11},
	}
	rc := NewReconciler(locks, seats, staticEvents{1, 2, 3}, time.Minute, 30*time.Second)
	require.NoError(t, rc.SweepAll(ctx))

	for _, eventID := range []int64{1, 2, 3} {
		assert.Zero(t, locks.claimed(eventID), "event %d swept", eventID)
	}
}

func TestReconciler_RunStopsOnCancel(t *testing.T) {
	rc := NewReconciler(newMemLockStore(), staticAvailability{}, staticEvents{}, 10*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rc.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond) // let a few sweeps fire
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop after cancellation")
	}
}

// Release is idempotent: sweeping twice leaves the same state as once.
func TestSweep_Idempotent(t *testing.T) {
	locks := newMemLockStore()
	ctx := context.Background()
	old := time.Now().Add(-5 * time.Minute)
	ok, err := locks.TryClaim(ctx, 1, []model.SeatRef{s11, s12}, old)
	require.NoError(t, err)
	require.True(t, ok)

	seats := staticAvailability{1: {s11, s12}}
	rc := NewReconciler(locks, seats, staticEvents{1}, time.Minute, 30*time.Second)

	require.NoError(t, rc.SweepEvent(ctx, 1))
	require.NoError(t, rc.SweepEvent(ctx, 1))
	assert.Zero(t, locks.claimed(1))
}
