package handler

import (
	"context"
	"net/http"
)

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	seatStore Pinger
	lockStore Pinger
}

// NewHealthHandler creates a health handler over the two store pingers.
func NewHealthHandler(seatStore, lockStore Pinger) *HealthHandler {
	return &HealthHandler{seatStore: seatStore, lockStore: lockStore}
}

// Live handles GET /health/live — 200 whenever the process is serving.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready — 200 iff both the seat store and the
// lock store answer a ping.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	services := map[string]string{"postgres": "healthy", "redis": "healthy"}

	if err := h.seatStore(r.Context()); err != nil {
		status = http.StatusServiceUnavailable
		services["postgres"] = "unhealthy: " + err.Error()
	}
	if err := h.lockStore(r.Context()); err != nil {
		status = http.StatusServiceUnavailable
		services["redis"] = "unhealthy: " + err.Error()
	}

	writeJSON(w, status, map[string]interface{}{
		"status":   map[bool]string{true: "ok", false: "degraded"}[status == http.StatusOK],
		"services": services,
	})
}
