package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/openaria/ariad/pkg/store"
)

// HealthCheckTimeout bounds the store ping so a wedged database cannot
// hang health probes.
const HealthCheckTimeout = 5 * time.Second

// HealthHandler handles GET /api/health.
type HealthHandler struct {
	store store.Store
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(s store.Store) *HealthHandler {
	return &HealthHandler{store: s}
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
}

// Health reports server liveness and store reachability.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", DB: "ok"}
	status := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		resp.DB = "error"
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, resp)
}
