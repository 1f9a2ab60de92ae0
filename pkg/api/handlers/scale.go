// Package handlers implements the HTTP endpoints: the three the scale
// firmware calls and the JSON management API.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/openaria/ariad/internal/logger"
	"github.com/openaria/ariad/internal/protocol/aria"
	"github.com/openaria/ariad/pkg/ingest"
	"github.com/openaria/ariad/pkg/models"
	"github.com/openaria/ariad/pkg/store"
)

// MaxUploadBytes caps the request body read on the upload endpoint. The
// largest legal frame is well under 4 KiB (64 measurements); the cap only
// guards against junk traffic hitting a port-80 listener.
const MaxUploadBytes = 64 * 1024

// ScaleHandler terminates the device-facing endpoints. Responses here are
// consumed by firmware, not humans: bodies are byte-exact and the status
// is 200 even for frames the server could not parse, because the scale
// retries forever on anything else.
type ScaleHandler struct {
	pipeline *ingest.Pipeline
	store    store.Store
}

// NewScaleHandler creates a new ScaleHandler.
func NewScaleHandler(p *ingest.Pipeline, st store.Store) *ScaleHandler {
	return &ScaleHandler{pipeline: p, store: st}
}

// Validate handles GET /scale/validate. The firmware probes this before
// registering; the expected body is the single byte 'T'.
func (h *ScaleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("T"))
}

// Register handles GET /scale/register. The observed acknowledgment is
// 'S' plus a newline. When the query carries a parseable MAC the scale
// row is created right away with the join SSID; otherwise this is a pure
// acknowledgment and the row appears on first upload. Registration never
// fails toward the device.
func (h *ScaleHandler) Register(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("mac"); raw != "" {
		ssid := r.URL.Query().Get("ssid")
		logger.Info("scale registration", "mac", raw, "ssid", ssid)

		if mac, err := aria.ParseMAC(raw); err == nil && !mac.IsZero() && !mac.IsBroadcast() {
			// Create the row only when the scale is new: a re-register
			// must not clobber firmware and battery from past uploads.
			if _, err := h.store.GetScale(r.Context(), mac.String()); errors.Is(err, models.ErrScaleNotFound) {
				up := store.ScaleUpsert{MAC: mac.String(), Serial: mac.Serial()}
				if ssid != "" {
					up.SSID = &ssid
				}
				if _, err := h.store.UpsertScale(r.Context(), up); err != nil {
					logger.Warn("registration upsert failed", "mac", mac.String(), "error", err)
				}
			}
		}
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("S\n"))
}

// Upload handles POST /scale/upload: binary frame in, binary frame out.
// 503 with an empty body is the one failure the scale sees; it means
// nothing was persisted and the device should retry.
func (h *ScaleHandler) Upload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxUploadBytes))
	if err != nil {
		logger.Warn("upload body read failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	res, err := h.pipeline.HandleUpload(r.Context(), body)
	if err != nil {
		if errors.Is(err, ingest.ErrStoreUnavailable) {
			logger.Error("upload rejected, store unavailable", "error", err)
		} else {
			logger.Error("upload failed", "error", err)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Response)
}
