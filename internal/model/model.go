// Package model contains domain models for the seat inventory system.
// These structs map to the PostgreSQL schema defined in migrations/001_create_schema.up.sql.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ─── Enums ──────────────────────────────────────────────────

// SeatStatus is the authoritative seat state stored in PostgreSQL.
// Only AVAILABLE and BOOKED are surfaced on the wire.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatBooked    SeatStatus = "BOOKED"
)

// ─── Domain Models ──────────────────────────────────────────

// Event maps to the `events` table. Events are immutable after creation.
type Event struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	CreatedAt time.Time `json:"created_at"`
}

// TotalSeats returns the fixed inventory size of the event.
func (e *Event) TotalSeats() int {
	return e.Rows * e.Cols
}

// Seat maps to the `seats` table.
//
// Invariants enforced by the schema and the commit strategies:
//   - status = BOOKED ⇔ holder is non-nil
//   - once BOOKED, (status, holder) never changes
//   - (event_id, row, col) is unique per event
type Seat struct {
	ID      int64      `json:"id"`
	EventID int64      `json:"event_id"`
	Row     string     `json:"row"`
	Col     string     `json:"col"`
	Status  SeatStatus `json:"status"`
	Holder  *string    `json:"holder,omitempty"`
}

// Ref returns the natural key of the seat.
func (s *Seat) Ref() SeatRef {
	return SeatRef{Row: s.Row, Col: s.Col}
}

// ─── Seat references ────────────────────────────────────────

// SeatRef identifies a seat within an event by its natural key.
// Row and col are strings to permit non-numeric labels ("A", "12").
type SeatRef struct {
	Row string `json:"row"`
	Col string `json:"col"`
}

// Key returns the "row-col" form used as the Redis hash field for this seat.
func (r SeatRef) Key() string {
	return r.Row + "-" + r.Col
}

// ParseSeatKey parses a "row-col" hash field back into a SeatRef.
// The split is on the first dash: rows may not contain dashes, columns may.
func ParseSeatKey(key string) (SeatRef, error) {
	row, col, ok := strings.Cut(key, "-")
	if !ok || row == "" || col == "" {
		return SeatRef{}, fmt.Errorf("malformed seat key %q", key)
	}
	return SeatRef{Row: row, Col: col}, nil
}

// DedupeSeatRefs returns the input with duplicate (row,col) pairs removed,
// preserving first-seen order.
func DedupeSeatRefs(refs []SeatRef) []SeatRef {
	seen := make(map[SeatRef]struct{}, len(refs))
	out := make([]SeatRef, 0, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}

// ─── Wire DTOs ──────────────────────────────────────────────

// SeatView is a single entry of the public seat map.
type SeatView struct {
	Row    string     `json:"row"`
	Col    string     `json:"col"`
	Status SeatStatus `json:"status"`
}
