package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.staff(t, "ops@cargo.example", domain.RoleOperator)

	_, err := e.auth.Login(ctx, "nobody@cargo.example", "correct-horse")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = e.auth.Login(ctx, "ops@cargo.example", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	sess, err := e.auth.Login(ctx, " OPS@cargo.example ", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.NotNil(t, sess.User.LastLoginAt)

	p, err := e.auth.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, domain.RoleOperator, p.Role)
	assert.True(t, p.IsStaff())
	assert.True(t, p.Can(domain.PermTrackingWrite))
	assert.False(t, p.Can(domain.PermTeamManage))

	require.NoError(t, e.auth.Logout(ctx, p))
	_, err = e.auth.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestInactiveUsersAreLockedOut(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	admin := e.staff(t, "admin@cargo.example", domain.RoleAdmin)
	u := e.staff(t, "ops@cargo.example", domain.RoleOperator)

	sess, err := e.auth.Login(ctx, u.Email, "correct-horse")
	require.NoError(t, err)
	_, err = e.auth.Authenticate(ctx, sess.Token)
	require.NoError(t, err)

	_, err = e.team.SetUserStatus(ctx, e.principal(t, admin), u.ID, domain.UserInactive)
	require.NoError(t, err)

	_, err = e.auth.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = e.auth.Login(ctx, u.Email, "correct-horse")
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestRegisterCreatesClientAndPortalUser(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	reg := Registration{
		CompanyName: "Acme Freight", FirstName: "Kim", LastName: "Silva",
		Email: "kim@acme.example", Password: "correct-horse", ConfirmPassword: "correct-horse",
	}
	sess, err := e.auth.Register(ctx, reg)
	require.NoError(t, err)
	require.NotNil(t, sess.User.ClientID)

	p, err := e.auth.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, p.IsClient())
	assert.Equal(t, *sess.User.ClientID, p.ClientID)

	c, err := e.clients.Get(ctx, p.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Freight", c.Name)

	_, err = e.auth.Register(ctx, reg)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")

	reg.Email, reg.ConfirmPassword = "other@acme.example", "mismatch!"
	_, err = e.auth.Register(ctx, reg)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "confirmPassword")
}

// brokenUsers fails every insert.
type brokenUsers struct {
	ports.UserRepository
}

func (brokenUsers) CreateUser(context.Context, *domain.User) error {
	return errors.New("disk full")
}

func TestRegisterFailureLeavesNoClient(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	users := e.auth.Users

	reg := Registration{
		CompanyName: "Acme Freight", FirstName: "Kim", LastName: "Silva",
		Email: "kim@acme.example", Password: "correct-horse", ConfirmPassword: "correct-horse",
	}
	e.auth.Users = brokenUsers{UserRepository: users}
	_, err := e.auth.Register(ctx, reg)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrValidation)

	page, err := e.clients.List(ctx, domain.ClientFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	e.auth.Users = users
	sess, err := e.auth.Register(ctx, reg)
	require.NoError(t, err)
	assert.NotNil(t, sess.User.ClientID)
}

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.staff(t, "ops@cargo.example", domain.RoleOperator)

	require.NoError(t, e.auth.ForgotPassword(ctx, "unknown@cargo.example"))
	assert.Empty(t, e.notifier.sent)

	require.NoError(t, e.auth.ForgotPassword(ctx, u.Email))
	n := e.notifier.last()
	assert.Equal(t, domain.NotifyPasswordReset, n.Kind)
	code := n.Data["otp"]
	require.Regexp(t, sixDigits, code)

	_, err := e.auth.VerifyOTP(ctx, u.Email, "000000x")
	assert.ErrorIs(t, err, domain.ErrOTPInvalid)

	token, err := e.auth.VerifyOTP(ctx, u.Email, code)
	require.NoError(t, err)
	_, err = e.auth.VerifyOTP(ctx, u.Email, code)
	assert.ErrorIs(t, err, domain.ErrOTPInvalid, "codes are single use")

	require.NoError(t, e.auth.ResetPassword(ctx, token, "brand-new-pass", "brand-new-pass"))
	assert.ErrorIs(t, e.auth.ResetPassword(ctx, token, "brand-new-pass", "brand-new-pass"), domain.ErrOTPInvalid)

	_, err = e.auth.Login(ctx, u.Email, "brand-new-pass")
	require.NoError(t, err)
}

func TestOTPAttemptsAreLimited(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.staff(t, "ops@cargo.example", domain.RoleOperator)
	require.NoError(t, e.auth.ForgotPassword(ctx, u.Email))
	code := e.notifier.last().Data["otp"]

	for i := 0; i < maxOTPAttempts; i++ {
		_, err := e.auth.VerifyOTP(ctx, u.Email, "bad")
		require.ErrorIs(t, err, domain.ErrOTPInvalid)
	}
	_, err := e.auth.VerifyOTP(ctx, u.Email, code)
	assert.ErrorIs(t, err, domain.ErrOTPInvalid)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.staff(t, "ops@cargo.example", domain.RoleOperator)
	p := e.principal(t, u)

	err := e.auth.ChangePassword(ctx, p, "nope-nope", "brand-new-pass", "brand-new-pass")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "currentPassword")

	require.NoError(t, e.auth.ChangePassword(ctx, p, "correct-horse", "brand-new-pass", "brand-new-pass"))
	_, err = e.auth.Login(ctx, u.Email, "brand-new-pass")
	require.NoError(t, err)
}

func TestLogoutOfExpiredTokenIsNoop(t *testing.T) {
	e := newEnv(t)
	p := &domain.Principal{TokenID: "jti", ExpiresAt: e.now.Add(-time.Minute)}
	require.NoError(t, e.auth.Logout(context.Background(), p))
}

// ttlCache records the lifetime of every write.
type ttlCache struct {
	ports.Cache
	ttls []time.Duration
}

func (c *ttlCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.ttls = append(c.ttls, ttl)
	return c.Cache.Set(ctx, key, value, ttl)
}

func TestOTPExpiryIsNotExtendedByGuesses(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.staff(t, "ops@cargo.example", domain.RoleOperator)
	cache := &ttlCache{Cache: e.cache}
	e.auth.Cache = cache

	require.NoError(t, e.auth.ForgotPassword(ctx, u.Email))
	code := e.notifier.last().Data["otp"]
	require.Equal(t, []time.Duration{otpTTL}, cache.ttls)

	e.now = e.now.Add(4 * time.Minute)
	_, err := e.auth.VerifyOTP(ctx, u.Email, "bad")
	require.ErrorIs(t, err, domain.ErrOTPInvalid)
	require.Len(t, cache.ttls, 2)
	assert.Equal(t, otpTTL-4*time.Minute, cache.ttls[1])

	e.now = e.now.Add(otpTTL)
	_, err = e.auth.VerifyOTP(ctx, u.Email, code)
	assert.ErrorIs(t, err, domain.ErrOTPInvalid)
}
