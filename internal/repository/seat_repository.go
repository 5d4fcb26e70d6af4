// Package repository provides PostgreSQL access for the seat inventory system.
//
// SeatRepository is the authoritative seat store: all ownership decisions are
// ultimately committed here, inside READ COMMITTED transactions. The commit
// strategies choose the concurrency discipline (plain read, FOR UPDATE NOWAIT,
// or a predicated update); the repository only exposes the primitives.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seatgrid/seatgrid/internal/model"
)

// pgLockNotAvailable is the PostgreSQL error code raised by NOWAIT when a
// row lock is held by another transaction.
const pgLockNotAvailable = "55P03"

// ─── Contracts ──────────────────────────────────────────────

// SeatTx is the set of seat mutations available inside one transaction.
// The commit strategies accept this interface so they can be exercised
// against fakes without a database.
type SeatTx interface {
	// FetchSeats returns the seats matching refs. No ordering guarantee;
	// refs with no matching row are simply absent from the result.
	FetchSeats(ctx context.Context, eventID int64, refs []model.SeatRef) ([]model.Seat, error)

	// FetchSeatsLocked is FetchSeats with FOR UPDATE NOWAIT. Returns
	// ErrRowLocked when any requested row is locked by another transaction.
	FetchSeatsLocked(ctx context.Context, eventID int64, refs []model.SeatRef) ([]model.Seat, error)

	// MarkBooked unconditionally sets status=BOOKED, holder=userID on the
	// referenced seats and returns the number of rows updated.
	MarkBooked(ctx context.Context, eventID int64, userID string, refs []model.SeatRef) (int64, error)

	// MarkBookedIfAvailable is MarkBooked predicated on the seat still being
	// AVAILABLE with no holder — the optimistic version check. Rows that
	// changed since fetch time are left untouched and not counted.
	MarkBookedIfAvailable(ctx context.Context, eventID int64, userID string, refs []model.SeatRef) (int64, error)
}

// SeatStore is the transactional seat store consumed by the commit
// strategies and the reconciler.
type SeatStore interface {
	// InTx runs fn inside a READ COMMITTED transaction. A non-nil error
	// from fn rolls the transaction back and is returned unchanged.
	InTx(ctx context.Context, fn func(SeatTx) error) error

	// FetchAvailable returns the refs of every AVAILABLE seat of the event.
	FetchAvailable(ctx context.Context, eventID int64) ([]model.SeatRef, error)
}

// ─── Implementation ─────────────────────────────────────────

// SeatRepository implements SeatStore over a pgx connection pool.
type SeatRepository struct {
	pool *pgxpool.Pool
}

// NewSeatRepository creates a seat repository.
func NewSeatRepository(pool *pgxpool.Pool) *SeatRepository {
	return &SeatRepository{pool: pool}
}

// InTx runs fn inside a READ COMMITTED transaction.
func (r *SeatRepository) InTx(ctx context.Context, fn func(SeatTx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("seats: begin tx: %w", err)
	}
	// Defer rollback — no-op if tx was already committed.
	defer tx.Rollback(ctx)

	if err := fn(&seatTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("seats: commit: %w", err)
	}
	return nil
}

// FetchAvailable returns all AVAILABLE seat refs of the event. Read-only,
// takes no locks.
func (r *SeatRepository) FetchAvailable(ctx context.Context, eventID int64) ([]model.SeatRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT seat_row, seat_col
		FROM seats
		WHERE event_id = $1 AND status = 'AVAILABLE'
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("seats: fetch available for event %d: %w", eventID, err)
	}
	defer rows.Close()

	var refs []model.SeatRef
	for rows.Next() {
		var ref model.SeatRef
		if err := rows.Scan(&ref.Row, &ref.Col); err != nil {
			return nil, fmt.Errorf("seats: scan available: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("seats: available rows: %w", err)
	}
	return refs, nil
}

// ─── Transaction-scoped operations ──────────────────────────

type seatTx struct {
	tx pgx.Tx
}

// refPredicate builds the `(seat_row, seat_col) IN ((...),(...))` clause for
// a seat set, appending the row/col values to args. Placeholders start after
// the already-appended args.
func refPredicate(refs []model.SeatRef, args *[]any) string {
	var b strings.Builder
	b.WriteString("(seat_row, seat_col) IN (")
	for i, ref := range refs {
		if i > 0 {
			b.WriteString(",")
		}
		*args = append(*args, ref.Row, ref.Col)
		fmt.Fprintf(&b, "($%d,$%d)", len(*args)-1, len(*args))
	}
	b.WriteString(")")
	return b.String()
}

func (t *seatTx) fetch(ctx context.Context, eventID int64, refs []model.SeatRef, suffix string) ([]model.Seat, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	args := []any{eventID}
	query := fmt.Sprintf(`
		SELECT id, event_id, seat_row, seat_col, status, holder
		FROM seats
		WHERE event_id = $1 AND %s %s
	`, refPredicate(refs, &args), suffix)

	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyPgError("seats: fetch", eventID, err)
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.EventID, &s.Row, &s.Col, &s.Status, &s.Holder); err != nil {
			return nil, fmt.Errorf("seats: scan: %w", err)
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPgError("seats: fetch", eventID, err)
	}
	return seats, nil
}

func (t *seatTx) FetchSeats(ctx context.Context, eventID int64, refs []model.SeatRef) ([]model.Seat, error) {
	return t.fetch(ctx, eventID, refs, "")
}

func (t *seatTx) FetchSeatsLocked(ctx context.Context, eventID int64, refs []model.SeatRef) ([]model.Seat, error) {
	return t.fetch(ctx, eventID, refs, "FOR UPDATE NOWAIT")
}

func (t *seatTx) MarkBooked(ctx context.Context, eventID int64, userID string, refs []model.SeatRef) (int64, error) {
	return t.mark(ctx, eventID, userID, refs, "")
}

func (t *seatTx) MarkBookedIfAvailable(ctx context.Context, eventID int64, userID string, refs []model.SeatRef) (int64, error) {
	return t.mark(ctx, eventID, userID, refs, "AND status = 'AVAILABLE' AND holder IS NULL")
}

func (t *seatTx) mark(ctx context.Context, eventID int64, userID string, refs []model.SeatRef, guard string) (int64, error) {
	if len(refs) == 0 {
		return 0, nil
	}
	args := []any{eventID, userID}
	// userID is $2; the predicate placeholders continue from there.
	pred := refPredicate(refs, &args)
	query := fmt.Sprintf(`
		UPDATE seats
		SET status = 'BOOKED', holder = $2, updated_at = now()
		WHERE event_id = $1 AND %s %s
	`, pred, guard)

	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, classifyPgError("seats: mark booked", eventID, err)
	}
	return tag.RowsAffected(), nil
}

// classifyPgError translates driver errors into repository sentinels where a
// distinguished meaning exists.
func classifyPgError(op string, eventID int64, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return fmt.Errorf("%s event %d: %w", op, eventID, ErrRowLocked)
	}
	return fmt.Errorf("%s event %d: %w", op, eventID, err)
}
