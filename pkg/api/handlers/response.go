package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openaria/ariad/pkg/models"
)

// ErrorResponse is the JSON error shape of the management API.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the standard error shape.
func WriteError(w http.ResponseWriter, status int, kind, detail string) {
	WriteJSON(w, status, ErrorResponse{Error: kind, Detail: detail})
}

// BadRequest writes a 400 with kind "bad_request".
func BadRequest(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusBadRequest, "bad_request", detail)
}

// NotFound writes a 404 with kind "not_found".
func NotFound(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusNotFound, "not_found", detail)
}

// HandleStoreError maps a store error to an HTTP response and writes it.
func HandleStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrScaleNotFound):
		NotFound(w, "scale not found")
	case errors.Is(err, models.ErrUserNotFound):
		NotFound(w, "user not found")
	case errors.Is(err, models.ErrMeasurementNotFound):
		NotFound(w, "measurement not found")
	case errors.Is(err, models.ErrNoFreeSlot):
		WriteError(w, http.StatusConflict, "no_free_slot", "all 8 scale slots are taken")
	case errors.Is(err, models.ErrSlotTaken):
		WriteError(w, http.StatusConflict, "no_free_slot", "slot was claimed concurrently")
	default:
		WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "database error")
	}
}
