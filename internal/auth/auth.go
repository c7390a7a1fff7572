// Package auth provides password hashing and bearer token issuance.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/arihooper/Pharmfind/internal/apperr"
)

// DefaultTokenTTL is the lifetime of issued tokens when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// Identity is what a token asserts about its bearer.
type Identity struct {
	UserID int64
	Email  string
	Role   string
}

// Claims are the JWT claims carried by bearer tokens.
type Claims struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// Service hashes passwords and signs/verifies HS256 tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// New creates a credential service. A zero ttl or cost selects the defaults.
func New(secret string, ttl time.Duration, cost int) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token secret must be provided")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Service{secret: []byte(secret), ttl: ttl, cost: cost, now: time.Now}, nil
}

// Hash returns a salted bcrypt hash of password. Passwords over 72 bytes
// are rejected as VALIDATION.
func (s *Service) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.Validation("Password must be at most 72 bytes").WithCause(err)
		}
		return "", errors.Wrap(err, "hash password")
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash.
func (s *Service) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs a token for id that expires after the configured TTL.
func (s *Service) IssueToken(id Identity) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: id.UserID,
		Email:  id.Email,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// VerifyToken checks signature, method and expiry and returns the claims.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, apperr.InvalidToken("Invalid token").WithCause(err)
	}
	if claims.UserID <= 0 {
		return nil, apperr.InvalidToken("Invalid token claims")
	}
	return claims, nil
}

// TTL returns the lifetime given to new tokens.
func (s *Service) TTL() time.Duration {
	return s.ttl
}
