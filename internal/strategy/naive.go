package strategy

import (
	"context"

	"github.com/seatgrid/seatgrid/internal/model"
	"github.com/seatgrid/seatgrid/internal/repository"
)

// Naive reads the seats, validates them in memory, and writes without any
// concurrency check. Between its read and its write another transaction can
// slip in; kept as the measurement baseline that shows what the gatekeeper
// alone buys.
type Naive struct {
	store repository.SeatStore
}

func (n *Naive) Name() string { return "naive" }

func (n *Naive) Commit(ctx context.Context, eventID int64, userID string, refs []model.SeatRef) error {
	return n.store.InTx(ctx, func(tx repository.SeatTx) error {
		seats, err := tx.FetchSeats(ctx, eventID, refs)
		if err != nil {
			return err
		}
		if err := checkFetched(seats, refs); err != nil {
			return err
		}
		_, err = tx.MarkBooked(ctx, eventID, userID, refs)
		return err
	})
}
