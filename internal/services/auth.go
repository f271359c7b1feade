package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cargo-logistics-service/internal/auth"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"

	"go.uber.org/zap"
)

const (
	principalTTL   = 10 * time.Minute
	otpTTL         = 10 * time.Minute
	resetTokenTTL  = 15 * time.Minute
	maxOTPAttempts = 5
)

func principalKey(userID string) string { return "principal:" + userID }
func revokedKey(tokenID string) string  { return "revoked:" + tokenID }
func otpKey(email string) string        { return "otp:" + email }
func resetKey(token string) string      { return "reset:" + auth.HashCode(token) }

// AuthService handles sign-in, token checks and password recovery for both
// staff and client portal users.
type AuthService struct {
	Users    ports.UserRepository
	Roles    ports.RoleRepository
	Clients  ports.ClientRepository
	Hasher   ports.PasswordHasher
	Tokens   ports.TokenIssuer
	Cache    ports.Cache
	Notifier ports.Notifier
	Clock    Clock
}

// Session is the result of a successful sign-in.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

func (s *AuthService) issue(ctx context.Context, u *domain.User) (*Session, error) {
	token, claims, err := s.Tokens.Issue(u, u.RoleName)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt, User: u}, nil
}

// Login checks credentials. Unknown emails and wrong passwords produce the
// same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (_ *Session, err error) {
	defer obs.Time(ctx, "auth.Login")(&err)

	u, err := s.Users.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if isNotFound(err) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := s.Hasher.Compare(u.PasswordHash, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if u.Status != domain.UserActive {
		return nil, domain.ErrAccountInactive
	}

	now := s.Clock.now()
	if err := s.Users.TouchLastLogin(ctx, u.ID, now); err != nil {
		zap.L().Warn("touch last login failed", zap.String("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLoginAt = &now
	}
	return s.issue(ctx, u)
}

// Registration is the client portal sign-up form.
type Registration struct {
	CompanyName     string
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// Register creates a client company and its first portal user.
func (s *AuthService) Register(ctx context.Context, r Registration) (_ *Session, err error) {
	defer obs.Time(ctx, "auth.Register")(&err)

	role, err := s.Roles.GetRoleByName(ctx, domain.RoleClient)
	if err != nil {
		return nil, fmt.Errorf("register: client role: %w", err)
	}

	company := strings.TrimSpace(r.CompanyName)
	if company == "" {
		company = strings.TrimSpace(r.FirstName + " " + r.LastName)
	}
	client := &domain.Client{
		Name:          company,
		ContactPerson: strings.TrimSpace(r.FirstName + " " + r.LastName),
		Email:         r.Email,
		Phone:         r.Phone,
	}
	client.Normalize()

	u := &domain.User{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		RoleID:    role.ID,
		RoleName:  role.Name,
		UserType:  domain.UserTypeClient,
		ClientID:  &client.ID,
		Status:    domain.UserActive,
	}
	u.Normalize()

	v := fieldErrors(client.Validate())
	if err := u.Validate(); err != nil {
		for f, msg := range fieldErrors(err).Fields {
			if f != "clientId" {
				v.Add(f, msg)
			}
		}
	}
	domain.CheckPassword(v, "password", r.Password, &r.ConfirmPassword)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if _, err := s.Users.GetUserByEmail(ctx, u.Email); err == nil {
		return nil, domain.NewValidationError("email", "is already registered")
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("register: %w", err)
	}

	if u.PasswordHash, err = s.Hasher.Hash(r.Password); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := s.Clients.CreateClient(ctx, client); err != nil {
		if isConflict(err) {
			return nil, domain.NewValidationError("email", "is already registered")
		}
		return nil, fmt.Errorf("register: create client: %w", err)
	}
	u.ClientID = &client.ID
	if err := s.Users.CreateUser(ctx, u); err != nil {
		// The client row would otherwise hold the email and block a retry.
		if derr := s.Clients.DeleteClient(ctx, client.ID); derr != nil {
			zap.L().Error("register: remove client after failed user insert",
				zap.String("req_id", obs.RequestID(ctx)),
				zap.String("client_id", client.ID),
				zap.Error(derr),
			)
		}
		if isConflict(err) {
			return nil, domain.NewValidationError("email", "is already registered")
		}
		return nil, fmt.Errorf("register: create user: %w", err)
	}
	return s.issue(ctx, u)
}

// Authenticate resolves a bearer token to the calling principal. Revoked
// tokens and users that are no longer active are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	if _, err := s.Cache.Get(ctx, revokedKey(claims.TokenID)); err == nil {
		return nil, fmt.Errorf("token revoked: %w", domain.ErrUnauthorized)
	} else if !errors.Is(err, ports.ErrCacheMiss) {
		return nil, fmt.Errorf("authenticate: revocation lookup: %w", err)
	}

	p, err := s.principal(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	p.TokenID = claims.TokenID
	p.ExpiresAt = claims.ExpiresAt
	return p, nil
}

func (s *AuthService) principal(ctx context.Context, userID string) (*domain.Principal, error) {
	if b, err := s.Cache.Get(ctx, principalKey(userID)); err == nil {
		var p domain.Principal
		if json.Unmarshal(b, &p) == nil {
			return &p, nil
		}
	}

	u, err := s.Users.GetUser(ctx, userID)
	if isNotFound(err) {
		return nil, fmt.Errorf("user %s no longer exists: %w", userID, domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("load principal: %w", err)
	}
	if u.Status != domain.UserActive {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrUnauthorized)
	}
	role, err := s.Roles.GetRole(ctx, u.RoleID)
	if err != nil {
		return nil, fmt.Errorf("load principal role: %w", err)
	}

	p := &domain.Principal{
		UserID:      u.ID,
		Email:       u.Email,
		UserType:    u.UserType,
		Role:        role.Name,
		Permissions: role.Permissions,
	}
	if u.ClientID != nil {
		p.ClientID = *u.ClientID
	}

	if b, err := json.Marshal(p); err == nil {
		if err := s.Cache.Set(ctx, principalKey(userID), b, principalTTL); err != nil {
			zap.L().Warn("cache principal failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return p, nil
}

// Forget drops the cached principal so the next request reloads it.
func (s *AuthService) Forget(ctx context.Context, userIDs ...string) {
	if s == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = principalKey(id)
	}
	if err := s.Cache.Delete(ctx, keys...); err != nil {
		zap.L().Warn("forget principals failed", zap.Strings("user_ids", userIDs), zap.Error(err))
	}
}

// Me returns the caller's user record and role.
func (s *AuthService) Me(ctx context.Context, p *domain.Principal) (*domain.User, *domain.Role, error) {
	u, err := s.Users.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("me: %w", err)
	}
	role, err := s.Roles.GetRole(ctx, u.RoleID)
	if err != nil {
		return nil, nil, fmt.Errorf("me: role: %w", err)
	}
	return u, role, nil
}

// Logout revokes the caller's token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, p *domain.Principal) error {
	ttl := p.ExpiresAt.Sub(s.Clock.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.Cache.Set(ctx, revokedKey(p.TokenID), []byte("1"), ttl); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, p *domain.Principal, current, next, confirm string) error {
	u, err := s.Users.GetUser(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.Hasher.Compare(u.PasswordHash, current); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return domain.NewValidationError("currentPassword", "is incorrect")
		}
		return fmt.Errorf("change password: %w", err)
	}

	v := &domain.ValidationError{}
	domain.CheckPassword(v, "newPassword", next, &confirm)
	if next == current {
		v.Add("newPassword", "must differ from the current password")
	}
	if err := v.Err(); err != nil {
		return err
	}
	return s.setPassword(ctx, u.ID, next)
}

func (s *AuthService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if err := s.Users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

type otpRecord struct {
	UserID    string    `json:"userId"`
	Hash      string    `json:"hash"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ForgotPassword emails a one-time code to active users. The outcome is
// the same for unknown addresses.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (err error) {
	defer obs.Time(ctx, "auth.ForgotPassword")(&err)

	email = domain.NormalizeEmail(email)
	if !domain.IsEmail(email) {
		return domain.NewValidationError("email", "must be a valid email address")
	}

	u, err := s.Users.GetUserByEmail(ctx, email)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	if u.Status != domain.UserActive {
		return nil
	}

	code, err := auth.NewOTP()
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	b, err := json.Marshal(otpRecord{UserID: u.ID, Hash: auth.HashCode(code), ExpiresAt: s.Clock.now().Add(otpTTL)})
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	if err := s.Cache.Set(ctx, otpKey(email), b, otpTTL); err != nil {
		return fmt.Errorf("forgot password: store code: %w", err)
	}

	notify(ctx, s.Notifier, domain.Notification{
		Kind:    domain.NotifyPasswordReset,
		To:      u.Email,
		Subject: "Your password reset code",
		Body:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(otpTTL.Minutes())),
		Data:    map[string]string{"otp": code, "name": u.FullName()},
	})
	return nil
}

// VerifyOTP exchanges a valid code for a single use reset token.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	email = domain.NormalizeEmail(email)
	b, err := s.Cache.Get(ctx, otpKey(email))
	if errors.Is(err, ports.ErrCacheMiss) {
		return "", domain.ErrOTPInvalid
	}
	if err != nil {
		return "", fmt.Errorf("verify otp: %w", err)
	}

	var rec otpRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return "", fmt.Errorf("verify otp: decode: %w", err)
	}

	remaining := rec.ExpiresAt.Sub(s.Clock.now())
	if remaining <= 0 {
		_ = s.Cache.Delete(ctx, otpKey(email))
		return "", domain.ErrOTPInvalid
	}

	if !auth.MatchCode(rec.Hash, strings.TrimSpace(code)) {
		rec.Attempts++
		if rec.Attempts >= maxOTPAttempts {
			_ = s.Cache.Delete(ctx, otpKey(email))
		} else if nb, err := json.Marshal(rec); err == nil {
			// Failed guesses keep the original expiry.
			_ = s.Cache.Set(ctx, otpKey(email), nb, remaining)
		}
		return "", domain.ErrOTPInvalid
	}

	if _, err := s.Cache.Take(ctx, otpKey(email)); err != nil && !errors.Is(err, ports.ErrCacheMiss) {
		return "", fmt.Errorf("verify otp: consume code: %w", err)
	}

	token, err := auth.NewResetToken()
	if err != nil {
		return "", fmt.Errorf("verify otp: %w", err)
	}
	if err := s.Cache.Set(ctx, resetKey(token), []byte(rec.UserID), resetTokenTTL); err != nil {
		return "", fmt.Errorf("verify otp: store reset token: %w", err)
	}
	return token, nil
}

// ResetPassword sets a new password using a token from VerifyOTP.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	v := &domain.ValidationError{}
	domain.CheckPassword(v, "newPassword", password, &confirm)
	if err := v.Err(); err != nil {
		return err
	}

	b, err := s.Cache.Take(ctx, resetKey(token))
	if errors.Is(err, ports.ErrCacheMiss) {
		return domain.ErrOTPInvalid
	}
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	userID := string(b)

	if err := s.setPassword(ctx, userID, password); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	s.Forget(ctx, userID)
	return nil
}

// Profile holds the fields users may change about themselves.
type Profile struct {
	FirstName       string
	LastName        string
	Phone           string
	ProfilePhotoURL string
}

func (s *AuthService) UpdateProfile(ctx context.Context, p *domain.Principal, in Profile) (*domain.User, error) {
	u, err := s.Users.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Phone = in.Phone
	u.ProfilePhotoURL = strings.TrimSpace(in.ProfilePhotoURL)
	u.Normalize()
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.Users.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}
