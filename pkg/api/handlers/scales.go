package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/openaria/ariad/pkg/store"
)

// ScalesHandler serves the read-only scale registry views.
type ScalesHandler struct {
	store store.Store
}

// NewScalesHandler creates a new ScalesHandler.
func NewScalesHandler(s store.Store) *ScalesHandler {
	return &ScalesHandler{store: s}
}

// List handles GET /api/scales.
func (h *ScalesHandler) List(w http.ResponseWriter, r *http.Request) {
	scales, err := h.store.ListScales(r.Context())
	if err != nil {
		HandleStoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, scales)
}

// Get handles GET /api/scales/{mac}.
func (h *ScalesHandler) Get(w http.ResponseWriter, r *http.Request) {
	mac := strings.ToUpper(chi.URLParam(r, "mac"))
	scale, err := h.store.GetScale(r.Context(), mac)
	if err != nil {
		HandleStoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, scale)
}
