package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openaria/ariad/pkg/models"
	"github.com/openaria/ariad/pkg/store"
)

// MeasurementsHandler serves the measurement read views.
type MeasurementsHandler struct {
	store store.Store
	unit  string
}

// NewMeasurementsHandler creates a new MeasurementsHandler. unit is the
// configured display unit, echoed on every view.
func NewMeasurementsHandler(s store.Store, unit string) *MeasurementsHandler {
	return &MeasurementsHandler{store: s, unit: unit}
}

// MeasurementView is the JSON shape of one measurement. Grams are the
// stored truth; kilograms and pounds are derived at read time.
type MeasurementView struct {
	*models.Measurement
	WeightKG   float64 `json:"weight_kg"`
	WeightLbs  float64 `json:"weight_lbs"`
	Unit       string  `json:"unit"`
	MeasuredAt string  `json:"measured_at"`
}

func (h *MeasurementsHandler) view(m *models.Measurement) MeasurementView {
	return MeasurementView{
		Measurement: m,
		WeightKG:    m.WeightKG(),
		WeightLbs:   m.WeightLbs(),
		Unit:        h.unit,
		MeasuredAt:  time.Unix(int64(m.Timestamp), 0).UTC().Format(time.RFC3339),
	}
}

// filter builds the store filter from the query string. The user_id
// parameter addresses a profile; it is resolved to the profile's slot
// because measurements carry slots, not user ids.
func (h *MeasurementsHandler) filter(w http.ResponseWriter, r *http.Request) (store.MeasurementFilter, bool) {
	q := r.URL.Query()
	f := store.MeasurementFilter{
		ScaleMAC: strings.ToUpper(q.Get("scale_mac")),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			BadRequest(w, "invalid limit")
			return f, false
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			BadRequest(w, "invalid offset")
			return f, false
		}
		f.Offset = n
	}
	if v := q.Get("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			BadRequest(w, "invalid user_id")
			return f, false
		}
		user, err := h.store.GetUser(r.Context(), uint(id))
		if err != nil {
			HandleStoreError(w, err)
			return f, false
		}
		slot := user.ScaleSlot
		f.UserSlot = &slot
	}
	return f, true
}

// List handles GET /api/measurements, newest first.
func (h *MeasurementsHandler) List(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filter(w, r)
	if !ok {
		return
	}

	rows, err := h.store.ListMeasurements(r.Context(), f)
	if err != nil {
		HandleStoreError(w, err)
		return
	}

	views := make([]MeasurementView, len(rows))
	for i, m := range rows {
		views[i] = h.view(m)
	}
	WriteJSON(w, http.StatusOK, views)
}

// Latest handles GET /api/measurements/latest.
func (h *MeasurementsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filter(w, r)
	if !ok {
		return
	}

	m, err := h.store.LatestMeasurement(r.Context(), f)
	if err != nil {
		HandleStoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.view(m))
}

// Conflicts handles GET /api/conflicts: re-uploads that reused an existing
// measurement ID with different bytes.
func (h *MeasurementsHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListMeasurementConflicts(r.Context())
	if err != nil {
		HandleStoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, rows)
}
