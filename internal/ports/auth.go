package ports

import (
	"time"

	"cargo-logistics-service/internal/domain"
)

// Claims carried by an access token.
type TokenClaims struct {
	UserID    string
	UserType  domain.UserType
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// Port: signs and verifies access tokens.
type TokenIssuer interface {
	Issue(u *domain.User, role string) (token string, claims TokenClaims, err error)
	Parse(token string) (TokenClaims, error)
}

// Port: one-way password hashing.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
