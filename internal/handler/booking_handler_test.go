package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatgrid/seatgrid/internal/model"
	"github.com/seatgrid/seatgrid/internal/service"
	"github.com/seatgrid/seatgrid/internal/strategy"
)

// commitErrFor maps a wire details string back to the strategy error that
// produces it.
func commitErrFor(details string) error {
	switch details {
	case "conflict_version":
		return strategy.ErrVersionConflict
	case "conflict_rowlock":
		return strategy.ErrRowLockConflict
	case "seats_not_found":
		return strategy.ErrSeatsNotFound
	default:
		return strategy.ErrSeatsUnavailable
	}
}

// scriptedLocks drives the coordinator to a chosen gatekeeper outcome.
type scriptedLocks struct {
	claimOK  bool
	claimErr error
}

func (s *scriptedLocks) TryClaim(context.Context, int64, []model.SeatRef, time.Time) (bool, error) {
	return s.claimOK, s.claimErr
}
func (s *scriptedLocks) Release(context.Context, int64, []model.SeatRef) error { return nil }

// scriptedCache drives the admission fast path.
type scriptedCache struct {
	val     int64
	present bool
}

func (s *scriptedCache) Peek(context.Context, int64) (int64, bool, error) {
	return s.val, s.present, nil
}
func (s *scriptedCache) Decrement(context.Context, int64, int64) error           { return nil }
func (s *scriptedCache) Seed(context.Context, int64, int64, time.Duration) error { return nil }

// scriptedCommit drives the strategy outcome.
type scriptedCommit struct{ err error }

func (s *scriptedCommit) Name() string { return "scripted" }
func (s *scriptedCommit) Commit(context.Context, int64, string, []model.SeatRef) error {
	return s.err
}

func postBooking(t *testing.T, h *BookingHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.BookSeats(rec, req)
	return rec
}

const validBody = `{"eventId":1,"userId":"u1","seats":[{"row":"1","col":"1"}]}`

func newHandler(locks *scriptedLocks, cache *scriptedCache, commit *scriptedCommit) *BookingHandler {
	svc := service.NewBookingService(locks, cache, commit, time.Second)
	return NewBookingHandler(svc)
}

func TestBookSeats_Success(t *testing.T) {
	h := newHandler(&scriptedLocks{claimOK: true}, &scriptedCache{}, &scriptedCommit{})

	rec := postBooking(t, h, validBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success   bool   `json:"success"`
		SeatCount int    `json:"seatCount"`
		Message   string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.SeatCount)
}

func TestBookSeats_StatusMapping(t *testing.T) {
	tests := []struct {
		name        string
		locks       *scriptedLocks
		cache       *scriptedCache
		commit      *scriptedCommit
		body        string
		wantStatus  int
		wantDetails string
	}{
		{
			name:       "malformed body",
			locks:      &scriptedLocks{claimOK: true},
			cache:      &scriptedCache{},
			commit:     &scriptedCommit{},
			body:       `{"eventId": not-json`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing event id",
			locks:      &scriptedLocks{claimOK: true},
			cache:      &scriptedCache{},
			commit:     &scriptedCommit{},
			body:       `{"userId":"u1","seats":[{"row":"1","col":"1"}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "empty seats",
			locks:       &scriptedLocks{claimOK: true},
			cache:       &scriptedCache{},
			commit:      &scriptedCommit{},
			body:        `{"eventId":1,"userId":"u1","seats":[]}`,
			wantStatus:  http.StatusBadRequest,
			wantDetails: "invalid",
		},
		{
			name:        "sold out",
			locks:       &scriptedLocks{claimOK: true},
			cache:       &scriptedCache{val: 0, present: true},
			commit:      &scriptedCommit{},
			body:        validBody,
			wantStatus:  http.StatusConflict,
			wantDetails: "sold_out",
		},
		{
			name:        "claim conflict",
			locks:       &scriptedLocks{claimOK: false},
			cache:       &scriptedCache{},
			commit:      &scriptedCommit{},
			body:        validBody,
			wantStatus:  http.StatusConflict,
			wantDetails: "conflict_cached",
		},
		{
			name:        "lock store down",
			locks:       &scriptedLocks{claimErr: context.DeadlineExceeded},
			cache:       &scriptedCache{},
			commit:      &scriptedCommit{},
			body:        validBody,
			wantStatus:  http.StatusServiceUnavailable,
			wantDetails: "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(tt.locks, tt.cache, tt.commit)
			rec := postBooking(t, h, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp struct {
				Success      bool   `json:"success"`
				ErrorDetails string `json:"errorDetails"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			if tt.wantDetails != "" {
				assert.Equal(t, tt.wantDetails, resp.ErrorDetails)
			}
		})
	}
}

func TestBookSeats_CommitConflictsAre409(t *testing.T) {
	for _, details := range []string{"conflict_version", "conflict_rowlock", "seats_not_found", "seats_unavailable"} {
		t.Run(details, func(t *testing.T) {
			h := newHandler(&scriptedLocks{claimOK: true}, &scriptedCache{}, &scriptedCommit{err: commitErrFor(details)})
			rec := postBooking(t, h, validBody)
			assert.Equal(t, http.StatusConflict, rec.Code)

			var resp struct {
				ErrorDetails string `json:"errorDetails"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, details, resp.ErrorDetails)
		})
	}
}
