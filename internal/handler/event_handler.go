package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/seatgrid/seatgrid/internal/service"
)

// EventHandler handles event HTTP requests.
type EventHandler struct {
	eventSvc *service.EventService
}

// NewEventHandler creates a new event handler.
func NewEventHandler(eventSvc *service.EventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

// createEventRequest is the POST /events body.
type createEventRequest struct {
	Name string `json:"name"`
	Date string `json:"date"` // ISO 8601
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

// createEventResponse is the 201 payload.
type createEventResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Rows       int    `json:"rows"`
	Cols       int    `json:"cols"`
	TotalSeats int    `json:"totalSeats"`
}

// CreateEvent handles POST /events
//
// Creates the event, materializes its seat grid, and seeds the admission
// counter. 201 on success, 400 on a malformed body or bad dimensions.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "malformed request body"})
		return
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "date must be ISO 8601"})
		return
	}

	ev, err := h.eventSvc.CreateEvent(r.Context(), req.Name, date, req.Rows, req.Cols)
	if err != nil {
		if status, _ := classifyBookingError(err); status == http.StatusBadRequest {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: err.Error()})
			return
		}
		log.Printf("[handler] create event error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error"})
		return
	}

	writeJSON(w, http.StatusCreated, createEventResponse{
		ID:         ev.ID,
		Name:       ev.Name,
		Date:       ev.Date.Format(time.RFC3339),
		Rows:       ev.Rows,
		Cols:       ev.Cols,
		TotalSeats: ev.TotalSeats(),
	})
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	ev, err := h.eventSvc.GetEvent(r.Context(), id)
	if err != nil {
		if service.IsNotFound(err) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "event not found"})
			return
		}
		log.Printf("[handler] get event error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error"})
		return
	}

	writeJSON(w, http.StatusOK, createEventResponse{
		ID:         ev.ID,
		Name:       ev.Name,
		Date:       ev.Date.Format(time.RFC3339),
		Rows:       ev.Rows,
		Cols:       ev.Cols,
		TotalSeats: ev.TotalSeats(),
	})
}

// GetSeatMap handles GET /events/{id}/seats
//
// Returns the full seat map with AVAILABLE/BOOKED statuses; 404 for an
// unknown event. Read-only: no locks, no claims.
func (h *EventHandler) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	seats, err := h.eventSvc.SeatMap(r.Context(), id)
	if err != nil {
		if service.IsNotFound(err) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "event not found"})
			return
		}
		log.Printf("[handler] seat map error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error"})
		return
	}

	writeJSON(w, http.StatusOK, seats)
}

// eventID extracts and validates the {id} path variable, writing a 400 on
// failure.
func eventID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "event id must be a positive integer"})
		return 0, false
	}
	return id, true
}
