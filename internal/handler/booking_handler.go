package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/seatgrid/seatgrid/internal/model"
	"github.com/seatgrid/seatgrid/internal/service"
	"github.com/seatgrid/seatgrid/internal/strategy"
)

// BookingHandler handles booking HTTP requests.
type BookingHandler struct {
	bookingSvc *service.BookingService
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(bookingSvc *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

// bookingRequest is the POST /bookings body.
type bookingRequest struct {
	EventID int64           `json:"eventId"`
	UserID  string          `json:"userId"`
	Seats   []model.SeatRef `json:"seats"`
}

// bookingResponse is the POST /bookings reply for both outcomes.
type bookingResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SeatCount    int    `json:"seatCount,omitempty"`
	ErrorDetails string `json:"errorDetails,omitempty"`
}

// BookSeats handles POST /bookings
//
// Response codes:
//
//	200 — Booking committed
//	400 — Malformed body or invalid input
//	409 — Lost a race: claimed, sold out, version/row-lock conflict,
//	      seats missing or already booked
//	503 — Lock store unreachable (retryable)
//	500 — Bug; not expected in steady state
func (h *BookingHandler) BookSeats(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, bookingResponse{
			Success: false,
			Message: "malformed request body",
		})
		return
	}
	if req.EventID <= 0 {
		writeJSON(w, http.StatusBadRequest, bookingResponse{
			Success: false,
			Message: "eventId must be a positive integer",
		})
		return
	}

	result, err := h.bookingSvc.BookSeats(r.Context(), req.EventID, req.UserID, req.Seats)
	if err != nil {
		status, details := classifyBookingError(err)
		if status == http.StatusInternalServerError {
			log.Printf("[handler] booking error: %v", err)
		}
		writeJSON(w, status, bookingResponse{
			Success:      false,
			Message:      err.Error(),
			ErrorDetails: details,
		})
		return
	}

	writeJSON(w, http.StatusOK, bookingResponse{
		Success:   true,
		Message:   "booking confirmed",
		SeatCount: result.SeatCount,
	})
}

// classifyBookingError maps the error taxonomy onto wire status codes.
// All race outcomes share 409; the details string keeps the kinds apart for
// clients that care.
func classifyBookingError(err error) (status int, details string) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid"
	case errors.Is(err, service.ErrSoldOut):
		return http.StatusConflict, "sold_out"
	case errors.Is(err, service.ErrInsufficientCapacity):
		return http.StatusConflict, "insufficient_capacity"
	case errors.Is(err, service.ErrSeatsClaimed):
		return http.StatusConflict, "conflict_cached"
	case errors.Is(err, strategy.ErrVersionConflict):
		return http.StatusConflict, "conflict_version"
	case errors.Is(err, strategy.ErrRowLockConflict):
		return http.StatusConflict, "conflict_rowlock"
	case errors.Is(err, strategy.ErrSeatsNotFound):
		return http.StatusConflict, "seats_not_found"
	case errors.Is(err, strategy.ErrSeatsUnavailable):
		return http.StatusConflict, "seats_unavailable"
	case errors.Is(err, service.ErrLockStoreUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
