package services

import (
	"context"
	"errors"
	"fmt"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"
)

// TeamService manages staff and portal user accounts and the roles that
// grant their permissions.
type TeamService struct {
	Users   ports.UserRepository
	Roles   ports.RoleRepository
	Clients ports.ClientRepository
	Hasher  ports.PasswordHasher
	// Auth is used to drop cached principals after account changes.
	Auth *AuthService
}

func (s *TeamService) ListUsers(ctx context.Context, f domain.UserFilter) (_ domain.Page[domain.User], err error) {
	defer obs.Time(ctx, "team.ListUsers")(&err)

	f.ListParams = f.ListParams.Normalize()
	items, total, err := s.Users.ListUsers(ctx, f)
	if err != nil {
		return domain.Page[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return domain.NewPage(items, total, f.ListParams), nil
}

func (s *TeamService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *TeamService) validateUser(ctx context.Context, u *domain.User) error {
	u.Normalize()
	v := fieldErrors(u.Validate())

	if u.RoleID != "" {
		role, err := s.Roles.GetRole(ctx, u.RoleID)
		switch {
		case isNotFound(err):
			v.Add("roleId", "does not exist")
		case err != nil:
			return fmt.Errorf("check role: %w", err)
		case u.UserType == domain.UserTypeClient && role.Name != domain.RoleClient:
			v.Add("roleId", "client users must have the client role")
		case u.UserType == domain.UserTypeAdmin && role.Name == domain.RoleClient:
			v.Add("roleId", "staff users cannot have the client role")
		}
	}
	if u.UserType == domain.UserTypeAdmin {
		u.ClientID = nil
	}
	err := reference(v, "clientId", u.ClientID, func(id string) error {
		_, err := s.Clients.GetClient(ctx, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("check client: %w", err)
	}
	return v.Err()
}

// CreateUser adds an account with an initial password.
func (s *TeamService) CreateUser(ctx context.Context, u *domain.User, password string) (err error) {
	defer obs.Time(ctx, "team.CreateUser")(&err)

	u.ID = ""
	u.LastLoginAt = nil
	err = s.validateUser(ctx, u)
	if err != nil && !errors.Is(err, domain.ErrValidation) {
		return err
	}
	v := fieldErrors(err)
	domain.CheckPassword(v, "password", password, nil)
	if err := v.Err(); err != nil {
		return err
	}

	if u.PasswordHash, err = s.Hasher.Hash(password); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if err := s.Users.CreateUser(ctx, u); err != nil {
		if isConflict(err) {
			return domain.NewValidationError("email", "is already registered")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *TeamService) UpdateUser(ctx context.Context, id string, u *domain.User) (err error) {
	defer obs.Time(ctx, "team.UpdateUser")(&err)

	existing, err := s.Users.GetUser(ctx, id)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	u.ID = id
	u.PasswordHash = existing.PasswordHash
	u.LastLoginAt = existing.LastLoginAt
	u.CreatedAt = existing.CreatedAt
	if u.Status == "" {
		u.Status = existing.Status
	}
	if err := s.validateUser(ctx, u); err != nil {
		return err
	}
	if err := s.Users.UpdateUser(ctx, u); err != nil {
		if isConflict(err) {
			return domain.NewValidationError("email", "is already registered")
		}
		return fmt.Errorf("update user: %w", err)
	}
	s.Auth.Forget(ctx, id)
	return nil
}

func (s *TeamService) SetUserStatus(ctx context.Context, actor *domain.Principal, id string, status domain.UserStatus) (*domain.User, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "is not a known user status")
	}
	if actor != nil && actor.UserID == id && status != domain.UserActive {
		return nil, fmt.Errorf("deactivate own account: %w", domain.ErrInvalidState)
	}

	u, err := s.Users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("set user status: %w", err)
	}
	u.Status = status
	if err := s.Users.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("set user status: %w", err)
	}
	s.Auth.Forget(ctx, id)
	return u, nil
}

// DeleteUser removes an account. Users cannot delete themselves.
func (s *TeamService) DeleteUser(ctx context.Context, actor *domain.Principal, id string) error {
	if actor != nil && actor.UserID == id {
		return fmt.Errorf("delete own account: %w", domain.ErrInvalidState)
	}
	if err := s.Users.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.Auth.Forget(ctx, id)
	return nil
}

func (s *TeamService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.Roles.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (s *TeamService) GetRole(ctx context.Context, id string) (*domain.Role, error) {
	r, err := s.Roles.GetRole(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	return r, nil
}

func (s *TeamService) CreateRole(ctx context.Context, r *domain.Role) error {
	r.ID = ""
	r.IsSystem = false
	r.Normalize()
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.Roles.CreateRole(ctx, r); err != nil {
		if isConflict(err) {
			return domain.NewValidationError("name", "is already taken")
		}
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

// UpdateRole changes a role's description and permissions. System roles keep
// their name, and the admin role keeps every permission.
func (s *TeamService) UpdateRole(ctx context.Context, id string, r *domain.Role) (err error) {
	defer obs.Time(ctx, "team.UpdateRole")(&err)

	existing, err := s.Roles.GetRole(ctx, id)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	r.ID = id
	r.IsSystem = existing.IsSystem
	r.CreatedAt = existing.CreatedAt
	r.Normalize()
	if existing.IsSystem {
		r.Name = existing.Name
	}
	if existing.Name == domain.RoleAdmin {
		r.Permissions = append([]string(nil), domain.AllPermissions...)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.Roles.UpdateRole(ctx, r); err != nil {
		if isConflict(err) {
			return domain.NewValidationError("name", "is already taken")
		}
		return fmt.Errorf("update role: %w", err)
	}

	s.forgetRoleHolders(ctx, id)
	return nil
}

func (s *TeamService) forgetRoleHolders(ctx context.Context, roleID string) {
	f := domain.UserFilter{ListParams: domain.ListParams{Page: 1, Limit: domain.MaxPageSize}, RoleID: roleID}
	for {
		users, total, err := s.Users.ListUsers(ctx, f)
		if err != nil || len(users) == 0 {
			return
		}
		ids := make([]string, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		s.Auth.Forget(ctx, ids...)
		if f.Page*f.Limit >= total {
			return
		}
		f.Page++
	}
}

// DeleteRole removes a custom role that no user holds.
func (s *TeamService) DeleteRole(ctx context.Context, id string) error {
	r, err := s.Roles.GetRole(ctx, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if r.IsSystem {
		return fmt.Errorf("delete system role %s: %w", r.Name, domain.ErrInvalidState)
	}
	if err := s.Roles.DeleteRole(ctx, id); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}

// Permissions is the catalogue offered when editing roles.
func (s *TeamService) Permissions() []string {
	return append([]string(nil), domain.AllPermissions...)
}
