package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arihooper/Pharmfind/domain"
	"github.com/arihooper/Pharmfind/internal/apperr"
	"github.com/arihooper/Pharmfind/internal/store"
)

type pharmacyRequest struct {
	Name         string   `json:"name" validate:"required"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Address      *string  `json:"address"`
	ContactPhone *string  `json:"contact_phone"`
}

type pharmacyUpdateRequest struct {
	Name         *string  `json:"name" validate:"omitempty,min=1"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Address      *string  `json:"address"`
	ContactPhone *string  `json:"contact_phone"`
}

type inventoryRequest struct {
	MedicineID *int64   `json:"medicine_id" validate:"required,gt=0"`
	Quantity   *int64   `json:"quantity" validate:"required,gte=0"`
	Price      *float64 `json:"price" validate:"required,gte=0"`
}

var errNoPharmacy = apperr.Forbidden("No pharmacy associated with this account")

// getPharmacy is the public pharmacy page: profile, owner and what is in stock.
func (h *Handler) getPharmacy(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(chi.URLParam(r, "id"), "pharmacy id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	pharmacy, err := h.store.PharmacyDetail(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	inventory, err := h.store.PharmacyInventory(r.Context(), id, true)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"pharmacy":        pharmacy,
		"inventory":       inventory,
		"inventory_count": len(inventory),
	})
}

func (h *Handler) listPharmacies(w http.ResponseWriter, r *http.Request) {
	near, err := h.parseProximity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	pharmacies, err := h.store.ListPharmacies(r.Context(), near)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"count":      len(pharmacies),
		"pharmacies": pharmacies,
	})
}

func (h *Handler) createPharmacy(w http.ResponseWriter, r *http.Request) {
	var req pharmacyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, validationError(err))
		return
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		respondError(w, r, apperr.Validation("latitude and longitude must be set together"))
		return
	}

	id, _ := identityFrom(r.Context())
	pharmacy, err := h.store.CreatePharmacy(r.Context(), domain.Pharmacy{
		OwnerID:      &id.UserID,
		Name:         req.Name,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Address:      trimmed(req.Address),
		ContactPhone: trimmed(req.ContactPhone),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.requestLog(r).Info("pharmacy created", "pharmacy_id", pharmacy.ID)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"message":  "Pharmacy created successfully",
		"pharmacy": pharmacy,
	})
}

// getOwnPharmacy returns the caller's pharmacy with its full inventory,
// including items that ran out.
func (h *Handler) getOwnPharmacy(w http.ResponseWriter, r *http.Request) {
	pharmacy, ok := h.ownPharmacy(w, r, false)
	if !ok {
		return
	}
	inventory, err := h.store.PharmacyInventory(r.Context(), pharmacy.ID, false)
	if err != nil {
		respondError(w, r, err)
		return
	}
	for i := range inventory {
		inventory[i].Status = domain.StockStatus(inventory[i].Quantity, h.opts.LowStockThreshold)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"pharmacy":        pharmacy,
		"inventory":       inventory,
		"inventory_count": len(inventory),
	})
}

func (h *Handler) updatePharmacy(w http.ResponseWriter, r *http.Request) {
	var req pharmacyUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, validationError(err))
		return
	}

	id, _ := identityFrom(r.Context())
	pharmacy, err := h.store.UpdatePharmacy(r.Context(), id.UserID, store.PharmacyUpdate{
		Name:         trimmed(req.Name),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Address:      trimmed(req.Address),
		ContactPhone: trimmed(req.ContactPhone),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Pharmacy updated successfully",
		"pharmacy": pharmacy,
	})
}

func (h *Handler) pharmacyStats(w http.ResponseWriter, r *http.Request) {
	pharmacy, ok := h.ownPharmacy(w, r, false)
	if !ok {
		return
	}
	stats, err := h.store.InventoryStats(r.Context(), pharmacy.ID, h.opts.LowStockThreshold)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stats": stats})
}

func (h *Handler) upsertInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, validationError(err))
		return
	}

	pharmacy, ok := h.ownPharmacy(w, r, true)
	if !ok {
		return
	}

	item, err := h.store.UpsertInventory(r.Context(), pharmacy.ID, *req.MedicineID, *req.Price, *req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.requestLog(r).Info("inventory updated",
		"pharmacy_id", pharmacy.ID, "medicine_id", item.MedicineID, "quantity", item.Quantity)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Inventory updated successfully",
		"inventory": item,
	})
}

// ownPharmacy resolves the caller's pharmacy and writes the error response
// when there is none. With forbid, a missing pharmacy is AUTH_FORBIDDEN
// rather than NOT_FOUND.
func (h *Handler) ownPharmacy(w http.ResponseWriter, r *http.Request, forbid bool) (domain.Pharmacy, bool) {
	id, _ := identityFrom(r.Context())
	pharmacy, err := h.store.PharmacyByOwner(r.Context(), id.UserID)
	if err != nil {
		if forbid && apperr.IsKind(err, apperr.KindNotFound) {
			err = errNoPharmacy
		}
		respondError(w, r, err)
		return domain.Pharmacy{}, false
	}
	return pharmacy, true
}
