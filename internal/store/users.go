package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/arihooper/Pharmfind/domain"
	"github.com/arihooper/Pharmfind/internal/apperr"
)

const userColumns = `id, email, name, phone, role, created_at`

// CreateUser inserts u and returns the stored row. A taken email is a CONFLICT.
func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	var created domain.User
	err := s.get(ctx, &created, `INSERT INTO users (email, password_hash, name, phone, role)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+userColumns, u.Email, u.PasswordHash, u.Name, u.Phone, u.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, apperr.Conflict("Email already exists").WithCause(err)
		}
		return domain.User{}, errors.Wrap(err, "insert user")
	}
	return created, nil
}

// UserByEmail returns the user including its password hash.
func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := s.get(ctx, &u, `SELECT `+userColumns+`, password_hash FROM users WHERE email = ?`, email)
	if err != nil {
		return domain.User{}, notFound(err, "User not found", "select user by email")
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := s.get(ctx, &u, `SELECT `+userColumns+`, password_hash FROM users WHERE id = ?`, id)
	if err != nil {
		return domain.User{}, notFound(err, "User not found", "select user by id")
	}
	return u, nil
}

// UpdateUserProfile sets the non-nil fields and returns the updated user.
func (s *Store) UpdateUserProfile(ctx context.Context, id int64, name, phone *string) (domain.User, error) {
	var u domain.User
	err := s.get(ctx, &u, `UPDATE users SET name = COALESCE(?, name), phone = COALESCE(?, phone)
		WHERE id = ?
		RETURNING `+userColumns, name, phone, id)
	if err != nil {
		return domain.User{}, notFound(err, "User not found", "update user profile")
	}
	return u, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, id int64, hash string) error {
	res, err := s.exec(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return errors.Wrap(err, "update user password")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}
