package auth

import (
	"errors"
	"fmt"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type claims struct {
	UserType string `json:"typ"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 access tokens carrying the user id, user type, role
// name and a unique token id used for revocation.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (j *JWTIssuer) Issue(u *domain.User, role string) (string, ports.TokenClaims, error) {
	now := j.now().UTC()
	c := ports.TokenClaims{
		UserID:    u.ID,
		UserType:  u.UserType,
		Role:      role,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(j.ttl).Truncate(time.Second),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserType: string(c.UserType),
		Role:     c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			ID:        c.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	})
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", ports.TokenClaims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, c, nil
}

// Parse verifies the signature and expiry. Any failure is reported as
// domain.ErrUnauthorized.
func (j *JWTIssuer) Parse(token string) (ports.TokenClaims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ports.TokenClaims{}, fmt.Errorf("token expired: %w", domain.ErrUnauthorized)
		}
		return ports.TokenClaims{}, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	if c.Subject == "" || c.ID == "" {
		return ports.TokenClaims{}, fmt.Errorf("token missing subject: %w", domain.ErrUnauthorized)
	}

	return ports.TokenClaims{
		UserID:    c.Subject,
		UserType:  domain.UserType(c.UserType),
		Role:      c.Role,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
