package domain

import "strings"

// Roles a user may hold.
const (
	RolePatient    = "patient"
	RolePharmacist = "pharmacist"
	RoleAdmin      = "admin"
)

type User struct {
	ID           int64   `json:"id" db:"id"`
	Email        string  `json:"email" db:"email"`
	PasswordHash string  `json:"-" db:"password_hash"`
	Name         *string `json:"name" db:"name"`
	Phone        *string `json:"phone" db:"phone"`
	Role         string  `json:"role" db:"role"`
	CreatedAt    string  `json:"created_at,omitempty" db:"created_at"`
}

// NormalizeRole maps client supplied role names onto the stored roles.
// The dashboard signs pharmacies up as "pharmacy".
func NormalizeRole(role string) string {
	switch r := strings.ToLower(strings.TrimSpace(role)); r {
	case "":
		return RolePatient
	case "pharmacy":
		return RolePharmacist
	default:
		return r
	}
}

// IsRole reports whether role is one of the known roles.
func IsRole(role string) bool {
	return role == RolePatient || role == RolePharmacist || role == RoleAdmin
}
