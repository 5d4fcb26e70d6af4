package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/seatgrid/seatgrid/internal/admission"
	"github.com/seatgrid/seatgrid/internal/model"
	"github.com/seatgrid/seatgrid/internal/repository"
)

// ErrEventNotFound re-exports the repository sentinel so handlers only deal
// with service-level errors.
var ErrEventNotFound = repository.ErrEventNotFound

// EventService creates events and serves the read side of the seat map.
type EventService struct {
	events *repository.EventRepository
	cache  admission.Cache
	ttl    time.Duration
}

// NewEventService creates an event service. ttl is the admission-counter
// expiry (event duration + grace, shared with the lock store TTL).
func NewEventService(events *repository.EventRepository, cache admission.Cache, ttl time.Duration) *EventService {
	return &EventService{events: events, cache: cache, ttl: ttl}
}

// CreateEvent materializes a new event: the event row, its full seat grid,
// and the admission counter.
//
// The seat grid is one transaction; the counter seed runs after commit and
// is best-effort. A missing counter only disables the fast path (the
// coordinator skips it on absence), so a seed failure is logged, not fatal.
func (s *EventService) CreateEvent(ctx context.Context, name string, date time.Time, rows, cols int) (*model.Event, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty event name", ErrInvalidRequest)
	}
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: dimensions must be at least 1x1, got %dx%d", ErrInvalidRequest, rows, cols)
	}

	ev := &model.Event{Name: name, Date: date, Rows: rows, Cols: cols}
	if err := s.events.CreateEventWithSeats(ctx, ev); err != nil {
		return nil, err
	}

	if err := s.cache.Seed(ctx, ev.ID, int64(ev.TotalSeats()), s.ttl); err != nil {
		log.Printf("[events] admission seed failed for event %d (fast path disabled until reseeded): %v", ev.ID, err)
	}

	log.Printf("[events] created event %d %q with %d seats (%dx%d)", ev.ID, ev.Name, ev.TotalSeats(), ev.Rows, ev.Cols)
	return ev, nil
}

// GetEvent fetches one event.
func (s *EventService) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	return s.events.GetEvent(ctx, id)
}

// SeatMap returns the public seat map, or ErrEventNotFound for unknown ids.
func (s *EventService) SeatMap(ctx context.Context, eventID int64) ([]model.SeatView, error) {
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	views, err := s.events.SeatMap(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []model.SeatView{}
	}
	return views, nil
}

// IsNotFound reports whether err is the unknown-event error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEventNotFound)
}
