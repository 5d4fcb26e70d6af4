package admission

import (
	"context"
	"sync/atomic"
	"time"
)

// Instrumented wraps a Cache with call counters. The wrapped cache stays
// free of observability concerns; wiring happens at composition time in
// cmd/server.
type Instrumented struct {
	next Cache

	peeks      atomic.Int64
	hits       atomic.Int64
	decrements atomic.Int64
	seeds      atomic.Int64
	errors     atomic.Int64
}

// NewInstrumented wraps next with counters.
func NewInstrumented(next Cache) *Instrumented {
	return &Instrumented{next: next}
}

func (i *Instrumented) Peek(ctx context.Context, eventID int64) (int64, bool, error) {
	i.peeks.Add(1)
	val, present, err := i.next.Peek(ctx, eventID)
	if err != nil {
		i.errors.Add(1)
	} else if present {
		i.hits.Add(1)
	}
	return val, present, err
}

func (i *Instrumented) Decrement(ctx context.Context, eventID int64, delta int64) error {
	i.decrements.Add(1)
	err := i.next.Decrement(ctx, eventID, delta)
	if err != nil {
		i.errors.Add(1)
	}
	return err
}

func (i *Instrumented) Seed(ctx context.Context, eventID int64, initial int64, ttl time.Duration) error {
	i.seeds.Add(1)
	err := i.next.Seed(ctx, eventID, initial, ttl)
	if err != nil {
		i.errors.Add(1)
	}
	return err
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Peeks      int64 `json:"peeks"`
	Hits       int64 `json:"hits"`
	Decrements int64 `json:"decrements"`
	Seeds      int64 `json:"seeds"`
	Errors     int64 `json:"errors"`
}

// Stats returns the current counter values.
func (i *Instrumented) Stats() Snapshot {
	return Snapshot{
		Peeks:      i.peeks.Load(),
		Hits:       i.hits.Load(),
		Decrements: i.decrements.Load(),
		Seeds:      i.seeds.Load(),
		Errors:     i.errors.Load(),
	}
}
