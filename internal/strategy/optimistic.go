package strategy

import (
	"context"

	"github.com/seatgrid/seatgrid/internal/model"
	"github.com/seatgrid/seatgrid/internal/repository"
)

// Optimistic fetches without locks and commits with an update predicated on
// (status, holder) being unchanged since fetch time. If fewer rows match
// than requested, some seat was taken in between: the transaction rolls
// back and the whole booking fails — partial commits are never allowed.
//
// This is the default strategy: it holds no locks across the validation and
// pays for conflicts only when they actually happen.
type Optimistic struct {
	store repository.SeatStore
}

func (o *Optimistic) Name() string { return "optimistic" }

func (o *Optimistic) Commit(ctx context.Context, eventID int64, userID string, refs []model.SeatRef) error {
	return o.store.InTx(ctx, func(tx repository.SeatTx) error {
		seats, err := tx.FetchSeats(ctx, eventID, refs)
		if err != nil {
			return err
		}
		if err := checkFetched(seats, refs); err != nil {
			return err
		}
		affected, err := tx.MarkBookedIfAvailable(ctx, eventID, userID, refs)
		if err != nil {
			return err
		}
		if affected < int64(len(refs)) {
			// Returning an error rolls back the partial update.
			return ErrVersionConflict
		}
		return nil
	})
}
