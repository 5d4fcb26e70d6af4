package strategy

import (
	"context"
	"errors"

	"github.com/seatgrid/seatgrid/internal/model"
	"github.com/seatgrid/seatgrid/internal/repository"
)

// Pessimistic takes row-level exclusive locks up front with FOR UPDATE
// NOWAIT. A held lock fails the booking immediately instead of queueing the
// transaction behind the winner — under flash-sale contention, waiting would
// just burn a pool connection on a booking that is going to lose anyway.
type Pessimistic struct {
	store repository.SeatStore
}

func (p *Pessimistic) Name() string { return "pessimistic" }

func (p *Pessimistic) Commit(ctx context.Context, eventID int64, userID string, refs []model.SeatRef) error {
	return p.store.InTx(ctx, func(tx repository.SeatTx) error {
		seats, err := tx.FetchSeatsLocked(ctx, eventID, refs)
		if err != nil {
			if errors.Is(err, repository.ErrRowLocked) {
				return ErrRowLockConflict
			}
			return err
		}
		if err := checkFetched(seats, refs); err != nil {
			return err
		}
		_, err = tx.MarkBooked(ctx, eventID, userID, refs)
		return err
	})
}
