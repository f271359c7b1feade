package auth

import (
	"regexp"
	"testing"
	"time"

	"cargo-logistics-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestJWTIssueAndParse(t *testing.T) {
	j := NewJWTIssuer("0123456789abcdef-secret", time.Hour)
	u := &domain.User{ID: "user-1", UserType: domain.UserTypeClient}

	token, issued, err := j.Issue(u, domain.RoleClient)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)

	got, err := j.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, domain.UserTypeClient, got.UserType)
	assert.Equal(t, domain.RoleClient, got.Role)
	assert.Equal(t, issued.TokenID, got.TokenID)
	assert.True(t, got.ExpiresAt.Equal(issued.ExpiresAt))
}

func TestJWTRejectsExpiredAndForeignTokens(t *testing.T) {
	j := NewJWTIssuer("0123456789abcdef-secret", time.Minute)
	u := &domain.User{ID: "user-1", UserType: domain.UserTypeAdmin}
	token, _, err := j.Issue(u, domain.RoleAdmin)
	require.NoError(t, err)

	j.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = j.Parse(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	other := NewJWTIssuer("another-secret-of-16+", time.Minute)
	token, _, err = other.Issue(u, domain.RoleAdmin)
	require.NoError(t, err)
	_, err = NewJWTIssuer("0123456789abcdef-secret", time.Minute).Parse(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = j.Parse("not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestJWTRejectsNoneAlgorithm(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		ID:        "t",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTIssuer("0123456789abcdef-secret", time.Hour).Parse(s)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("s3cret-pass")
	require.NoError(t, err)

	assert.NoError(t, h.Compare(hash, "s3cret-pass"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), domain.ErrInvalidCredentials)
}

func TestOTP(t *testing.T) {
	code, err := NewOTP()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), code)

	h := HashCode(code)
	assert.True(t, MatchCode(h, code))
	assert.False(t, MatchCode(h, "x"+code))

	tok, err := NewResetToken()
	require.NoError(t, err)
	assert.Len(t, tok, 64)
}
