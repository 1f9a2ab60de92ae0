package handlers

import (
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/openaria/ariad/pkg/models"
	"github.com/openaria/ariad/pkg/store"
)

// RawUploadsHandler serves the debug view over verbatim request records.
type RawUploadsHandler struct {
	store store.Store
}

// NewRawUploadsHandler creates a new RawUploadsHandler.
func NewRawUploadsHandler(s store.Store) *RawUploadsHandler {
	return &RawUploadsHandler{store: s}
}

// RawUploadView exposes the stored bytes hex-encoded so the row is
// copy-pasteable into protocol tooling.
type RawUploadView struct {
	*models.RawUpload
	RequestHex  string `json:"request_hex"`
	ResponseHex string `json:"response_hex"`
}

// List handles GET /api/raw-uploads?errors_only=&limit=&offset=.
func (h *RawUploadsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	errorsOnly := q.Get("errors_only") == "true" || q.Get("errors_only") == "1"

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}
	offset := 0
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			BadRequest(w, "invalid offset")
			return
		}
		offset = n
	}

	rows, err := h.store.ListRawUploads(r.Context(), errorsOnly, limit, offset)
	if err != nil {
		HandleStoreError(w, err)
		return
	}

	views := make([]RawUploadView, len(rows))
	for i, row := range rows {
		views[i] = RawUploadView{
			RawUpload:   row,
			RequestHex:  hex.EncodeToString(row.RequestBytes),
			ResponseHex: hex.EncodeToString(row.ResponseBytes),
		}
	}
	WriteJSON(w, http.StatusOK, views)
}
