package domain

import (
	"strings"
	"time"
)

type UserType string

const (
	UserTypeAdmin  UserType = "admin"
	UserTypeClient UserType = "client"
)

func (t UserType) Valid() bool { return t == UserTypeAdmin || t == UserTypeClient }

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserInactive  UserStatus = "inactive"
	UserSuspended UserStatus = "suspended"
)

func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserInactive || s == UserSuspended
}

// Permission names checked by the API.
const (
	PermShipmentsRead   = "shipments:read"
	PermShipmentsWrite  = "shipments:write"
	PermClientsRead     = "clients:read"
	PermClientsWrite    = "clients:write"
	PermContainersRead  = "containers:read"
	PermContainersWrite = "containers:write"
	PermSuppliersRead   = "suppliers:read"
	PermSuppliersWrite  = "suppliers:write"
	PermFinanceRead     = "finance:read"
	PermFinanceWrite    = "finance:write"
	PermInvoicesRead    = "invoices:read"
	PermInvoicesWrite   = "invoices:write"
	PermTrackingWrite   = "tracking:write"
	PermReportsRead     = "reports:read"
	PermReportsWrite    = "reports:write"
	PermTeamManage      = "team:manage"
	PermSettingsManage  = "settings:manage"
	PermSupportManage   = "support:manage"
)

// AllPermissions is the permission catalogue offered when editing roles.
var AllPermissions = []string{
	PermShipmentsRead, PermShipmentsWrite,
	PermClientsRead, PermClientsWrite,
	PermContainersRead, PermContainersWrite,
	PermSuppliersRead, PermSuppliersWrite,
	PermFinanceRead, PermFinanceWrite,
	PermInvoicesRead, PermInvoicesWrite,
	PermTrackingWrite,
	PermReportsRead, PermReportsWrite,
	PermTeamManage, PermSettingsManage, PermSupportManage,
}

// Role names seeded on startup.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleOperator   = "operator"
	RoleAccountant = "accountant"
	RoleClient     = "client"
)

type Role struct {
	ID          string
	Name        string
	Description string
	Permissions []string
	IsSystem    bool
	UserCount   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *Role) Normalize() {
	r.Name = strings.ToLower(strings.TrimSpace(r.Name))
	r.Description = strings.TrimSpace(r.Description)

	seen := make(map[string]struct{}, len(r.Permissions))
	perms := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		p = strings.TrimSpace(p)
		if _, ok := seen[p]; ok || p == "" {
			continue
		}
		seen[p] = struct{}{}
		perms = append(perms, p)
	}
	r.Permissions = perms
}

func (r *Role) Validate() error {
	v := &ValidationError{}
	requireText(v, "name", r.Name)
	for _, p := range r.Permissions {
		if !contains(AllPermissions, p) {
			v.Add("permissions", "unknown permission "+p)
		}
	}
	return v.Err()
}

// SystemRoles are created by migrations and cannot be deleted.
func SystemRoles() []Role {
	return []Role{
		{Name: RoleAdmin, Description: "Full access", Permissions: append([]string(nil), AllPermissions...), IsSystem: true},
		{Name: RoleManager, Description: "Operations manager", IsSystem: true, Permissions: []string{
			PermShipmentsRead, PermShipmentsWrite, PermClientsRead, PermClientsWrite,
			PermContainersRead, PermContainersWrite, PermSuppliersRead, PermSuppliersWrite,
			PermInvoicesRead, PermFinanceRead, PermTrackingWrite, PermReportsRead,
			PermReportsWrite, PermSupportManage,
		}},
		{Name: RoleOperator, Description: "Shipment operations", IsSystem: true, Permissions: []string{
			PermShipmentsRead, PermShipmentsWrite, PermClientsRead, PermContainersRead,
			PermContainersWrite, PermSuppliersRead, PermTrackingWrite, PermSupportManage,
		}},
		{Name: RoleAccountant, Description: "Finance and invoicing", IsSystem: true, Permissions: []string{
			PermClientsRead, PermShipmentsRead, PermInvoicesRead, PermInvoicesWrite,
			PermFinanceRead, PermFinanceWrite, PermReportsRead, PermReportsWrite,
		}},
		{Name: RoleClient, Description: "Client portal user", IsSystem: true, Permissions: []string{}},
	}
}

type User struct {
	ID              string
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	PasswordHash    string
	RoleID          string
	RoleName        string
	UserType        UserType
	ClientID        *string
	Status          UserStatus
	ProfilePhotoURL string
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) Normalize() {
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	u.Email = normalizeEmail(u.Email)
	u.Phone = strings.TrimSpace(u.Phone)
	u.ClientID = blankToNil(u.ClientID)
	if u.Status == "" {
		u.Status = UserActive
	}
	if u.UserType == "" {
		u.UserType = UserTypeAdmin
	}
}

// Validate checks profile fields; password rules are checked separately.
func (u *User) Validate() error {
	v := &ValidationError{}
	requireText(v, "firstName", u.FirstName)
	requireText(v, "lastName", u.LastName)
	checkEmail(v, "email", u.Email, true)
	checkPhone(v, "phone", u.Phone)
	requireText(v, "roleId", u.RoleID)
	if !u.UserType.Valid() {
		v.Add("userType", "must be admin or client")
	}
	if u.UserType == UserTypeClient && u.ClientID == nil {
		v.Add("clientId", "is required for client users")
	}
	if !u.Status.Valid() {
		v.Add("status", "is not a known user status")
	}
	return v.Err()
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID      string
	Email       string
	UserType    UserType
	ClientID    string
	Role        string
	Permissions []string
	TokenID     string
	ExpiresAt   time.Time
}

// Can reports whether the principal holds perm. The admin role holds all.
func (p *Principal) Can(perm string) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleAdmin && p.UserType == UserTypeAdmin {
		return true
	}
	return contains(p.Permissions, perm)
}

func (p *Principal) IsStaff() bool { return p != nil && p.UserType == UserTypeAdmin }

func (p *Principal) IsClient() bool {
	return p != nil && p.UserType == UserTypeClient && p.ClientID != ""
}
