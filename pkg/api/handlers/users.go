package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/openaria/ariad/pkg/models"
	"github.com/openaria/ariad/pkg/store"
)

// UsersHandler manages scale user profiles. Profiles are delivered to the
// scale in slot order on every upload; creating one assigns the lowest
// free slot and deleting one frees it.
type UsersHandler struct {
	store store.Store
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(s store.Store) *UsersHandler {
	return &UsersHandler{store: s}
}

// List handles GET /api/users, ordered by slot.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsersBySlot(r.Context())
	if err != nil {
		HandleStoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

// Create handles POST /api/users. Parameters travel in the query string:
// name, height_cm, age, gender, and optional min_kg/max_kg.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		BadRequest(w, "name is required")
		return
	}

	heightCM, err := strconv.ParseFloat(q.Get("height_cm"), 64)
	if err != nil || heightCM <= 0 || heightCM > 300 {
		BadRequest(w, "height_cm must be a positive number of centimetres")
		return
	}

	age, err := strconv.ParseUint(q.Get("age"), 10, 8)
	if err != nil {
		BadRequest(w, "age must be 0-255")
		return
	}

	gender, ok := parseGender(q.Get("gender"))
	if !ok {
		BadRequest(w, "gender must be 0/female or 1/male")
		return
	}

	uc := store.UserCreate{
		Name:     name,
		HeightMM: uint16(heightCM * 10),
		Age:      uint8(age),
		Gender:   gender,
	}

	if v := q.Get("min_kg"); v != "" {
		kg, err := strconv.ParseFloat(v, 64)
		if err != nil || kg < 0 {
			BadRequest(w, "invalid min_kg")
			return
		}
		uc.MinWeightG = uint32(kg * 1000)
	}
	if v := q.Get("max_kg"); v != "" {
		kg, err := strconv.ParseFloat(v, 64)
		if err != nil || kg < 0 {
			BadRequest(w, "invalid max_kg")
			return
		}
		uc.MaxWeightG = uint32(kg * 1000)
	}

	user, err := h.store.CreateUser(r.Context(), uc)
	if err != nil {
		HandleStoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, user)
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}

	if err := h.store.DeleteUser(r.Context(), uint(id)); err != nil {
		HandleStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseGender accepts the wire encoding (0/1) and the obvious names.
func parseGender(s string) (uint8, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "f", "female":
		return models.GenderFemale, true
	case "1", "m", "male":
		return models.GenderMale, true
	default:
		return 0, false
	}
}
