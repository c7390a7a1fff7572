package api

import (
	"net/http"
	"strings"

	"github.com/arihooper/Pharmfind/domain"
	"github.com/arihooper/Pharmfind/internal/apperr"
	"github.com/arihooper/Pharmfind/internal/auth"
)

type registerRequest struct {
	Email    string  `json:"email" validate:"required"`
	Password string  `json:"password" validate:"required"`
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    domain.User `json:"user"`
	Token   string      `json:"token"`
}

var errCredentials = apperr.Unauthorized("Invalid credentials")

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.Email = normalizeEmail(req.Email)
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, apperr.Validation("Email and password required").WithCause(err))
		return
	}

	role := domain.NormalizeRole(req.Role)
	if !domain.IsRole(role) || role == domain.RoleAdmin {
		respondError(w, r, apperr.Validation("Invalid role"))
		return
	}

	hashed, err := h.auth.Hash(req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.store.CreateUser(r.Context(), domain.User{
		Email:        req.Email,
		PasswordHash: hashed,
		Name:         trimmed(req.Name),
		Phone:        trimmed(req.Phone),
		Role:         role,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	token, err := h.auth.IssueToken(auth.Identity{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.requestLog(r).Info("user registered", "user_id", user.ID, "role", user.Role)
	respondJSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: "User registered successfully",
		User:    user,
		Token:   token,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.Email = normalizeEmail(req.Email)
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, apperr.Validation("Email and password required").WithCause(err))
		return
	}

	user, err := h.store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			respondError(w, r, errCredentials)
			return
		}
		respondError(w, r, err)
		return
	}
	if !h.auth.Verify(req.Password, user.PasswordHash) {
		respondError(w, r, errCredentials)
		return
	}

	token, err := h.auth.IssueToken(auth.Identity{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "Login successful",
		User:    user,
		Token:   token,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// trimmed returns nil for absent or blank values.
func trimmed(val *string) *string {
	if val == nil {
		return nil
	}
	t := strings.TrimSpace(*val)
	if t == "" {
		return nil
	}
	return &t
}
