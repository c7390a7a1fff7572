package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"

	"github.com/arihooper/Pharmfind/domain"
	"github.com/arihooper/Pharmfind/internal/apperr"
	"github.com/arihooper/Pharmfind/internal/geo"
	"github.com/arihooper/Pharmfind/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type medicineRequest struct {
	BrandName   string  `json:"brand_name" validate:"required"`
	GenericName *string `json:"generic_name"`
	Form        *string `json:"form"`
	Strength    *string `json:"strength"`
}

// searchMedicines finds in-stock offers for a medicine name, optionally
// limited to pharmacies around lat/lng.
func (h *Handler) searchMedicines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("query"))
	if query == "" {
		query = strings.TrimSpace(q.Get("q"))
	}
	if query == "" {
		respondError(w, r, apperr.Validation("Search query required"))
		return
	}

	near, err := h.parseProximity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	results, err := h.store.SearchMedicines(r.Context(), store.SearchParams{Query: query, Near: near})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"count":     len(results),
		"medicines": results,
	})
}

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	limit, offset := defaultPageSize, 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			respondError(w, r, apperr.Validation("Invalid limit"))
			return
		}
		limit = min(v, maxPageSize)
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			respondError(w, r, apperr.Validation("Invalid offset"))
			return
		}
		offset = v
	}

	medicines, err := h.store.ListMedicines(r.Context(), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"count":     len(medicines),
		"medicines": medicines,
	})
}

func (h *Handler) getMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(chi.URLParam(r, "id"), "medicine id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	medicine, err := h.store.MedicineByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "medicine": medicine})
}

func (h *Handler) createMedicine(w http.ResponseWriter, r *http.Request) {
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.BrandName = strings.TrimSpace(req.BrandName)
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, validationError(err))
		return
	}

	medicine, err := h.store.CreateMedicine(r.Context(), domain.Medicine{
		BrandName:   req.BrandName,
		GenericName: trimmed(req.GenericName),
		Form:        trimmed(req.Form),
		Strength:    trimmed(req.Strength),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"message":  "Medicine created successfully",
		"medicine": medicine,
	})
}

// parseProximity reads lat, lng and radius from the query string. It returns
// nil unless both coordinates are given. The radius defaults to the configured
// value and is capped at the configured maximum.
func (h *Handler) parseProximity(r *http.Request) (*store.Proximity, error) {
	q := r.URL.Query()
	rawLat, rawLng, rawRadius := q.Get("lat"), q.Get("lng"), q.Get("radius")

	radius := h.opts.DefaultRadiusKm
	if rawRadius != "" {
		v, err := strconv.ParseFloat(rawRadius, 64)
		if err != nil || !(v > 0) {
			return nil, apperr.Validation("Invalid radius")
		}
		radius = v
	}
	if h.opts.MaxRadiusKm > 0 {
		radius = min(radius, h.opts.MaxRadiusKm)
	}

	if rawLat == "" || rawLng == "" {
		return nil, nil
	}
	lat, errLat := strconv.ParseFloat(rawLat, 64)
	lng, errLng := strconv.ParseFloat(rawLng, 64)
	if errLat != nil || errLng != nil || !geo.ValidPoint(lat, lng) {
		return nil, apperr.Validation("Invalid coordinates")
	}
	return &store.Proximity{Center: orb.Point{lng, lat}, RadiusKm: radius}, nil
}
