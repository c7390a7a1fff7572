package api

import (
	"net/http"

	"github.com/arihooper/Pharmfind/internal/apperr"
)

type profileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	user, err := h.store.UserByID(r.Context(), id.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	name, phone := trimmed(req.Name), trimmed(req.Phone)
	if name == nil && phone == nil {
		respondError(w, r, apperr.Validation("name or phone is required"))
		return
	}

	id, _ := identityFrom(r.Context())
	user, err := h.store.UpdateUserProfile(r.Context(), id.UserID, name, phone)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, validationError(err))
		return
	}
	if req.NewPassword == req.CurrentPassword {
		respondError(w, r, apperr.Validation("New password must differ from the current password"))
		return
	}

	id, _ := identityFrom(r.Context())
	user, err := h.store.UserByID(r.Context(), id.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !h.auth.Verify(req.CurrentPassword, user.PasswordHash) {
		respondError(w, r, apperr.Unauthorized("Current password is incorrect"))
		return
	}

	hashed, err := h.auth.Hash(req.NewPassword)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.store.UpdateUserPassword(r.Context(), user.ID, hashed); err != nil {
		respondError(w, r, err)
		return
	}

	h.requestLog(r).Info("password changed")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password updated successfully",
	})
}
