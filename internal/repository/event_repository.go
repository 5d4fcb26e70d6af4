package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seatgrid/seatgrid/internal/model"
)

// EventRepository handles event creation and read-side seat queries.
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates an event repository.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// CreateEventWithSeats inserts the event and materializes its full
// rows × cols seat grid in a single transaction. Seat labels are the
// 1-based row/col indices rendered as strings.
//
// The bulk insert uses COPY: a 50×100 event is 5000 rows and a VALUES list
// of that size is both slow to plan and easy to get wrong.
func (r *EventRepository) CreateEventWithSeats(ctx context.Context, ev *model.Event) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("events: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO events (name, date, rows, cols)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, ev.Name, ev.Date, ev.Rows, ev.Cols).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("events: insert event: %w", err)
	}

	seatRows := make([][]any, 0, ev.Rows*ev.Cols)
	for row := 1; row <= ev.Rows; row++ {
		for col := 1; col <= ev.Cols; col++ {
			seatRows = append(seatRows, []any{
				ev.ID,
				fmt.Sprintf("%d", row),
				fmt.Sprintf("%d", col),
				string(model.SeatAvailable),
			})
		}
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"seats"},
		[]string{"event_id", "seat_row", "seat_col", "status"},
		pgx.CopyFromRows(seatRows),
	)
	if err != nil {
		return fmt.Errorf("events: copy seats for event %d: %w", ev.ID, err)
	}
	if copied != int64(len(seatRows)) {
		return fmt.Errorf("events: copied %d of %d seats for event %d", copied, len(seatRows), ev.ID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("events: commit: %w", err)
	}
	return nil
}

// GetEvent fetches an event by id. Returns ErrEventNotFound for unknown ids.
func (r *EventRepository) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	ev := &model.Event{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, date, rows, cols, created_at
		FROM events
		WHERE id = $1
	`, id).Scan(&ev.ID, &ev.Name, &ev.Date, &ev.Rows, &ev.Cols, &ev.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("events: get event %d: %w", id, err)
	}
	return ev, nil
}

// SeatMap returns the public seat map of the event, ordered for stable
// output. Read-only, takes no locks.
func (r *EventRepository) SeatMap(ctx context.Context, eventID int64) ([]model.SeatView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT seat_row, seat_col, status
		FROM seats
		WHERE event_id = $1
		ORDER BY length(seat_row), seat_row, length(seat_col), seat_col
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("events: seat map for event %d: %w", eventID, err)
	}
	defer rows.Close()

	var views []model.SeatView
	for rows.Next() {
		var v model.SeatView
		if err := rows.Scan(&v.Row, &v.Col, &v.Status); err != nil {
			return nil, fmt.Errorf("events: scan seat view: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("events: seat map rows: %w", err)
	}
	return views, nil
}

// ListActiveEventIDs returns the ids of events the reconciler should sweep:
// everything whose date has not passed by more than a day. Claim hashes of
// older events expire via their key TTL.
func (r *EventRepository) ListActiveEventIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM events
		WHERE date > now() - interval '24 hours'
	`)
	if err != nil {
		return nil, fmt.Errorf("events: list active: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("events: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("events: active rows: %w", err)
	}
	return ids, nil
}
