package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
)

// SQLUserRepository implements ports.UserRepository.
type SQLUserRepository struct{ DB *sql.DB }

func NewSQLUserRepository(db *sql.DB) *SQLUserRepository {
	return &SQLUserRepository{DB: db}
}

const userColumns = `u.id, u.first_name, u.last_name, u.email, u.phone, u.password_hash, u.role_id, r.name,
	u.user_type, u.client_id, u.status, u.profile_photo_url, u.last_login_at, u.created_at, u.updated_at`

const userFrom = `users u JOIN roles r ON r.id = u.role_id`

func scanUser(row scanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash, &u.RoleID, &u.RoleName,
		&u.UserType, &u.ClientID, &u.Status, &u.ProfilePhotoURL, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *SQLUserRepository) ListUsers(ctx context.Context, f domain.UserFilter) (_ []domain.User, _ int, err error) {
	defer obs.Time(ctx, "users.repo.List")(&err)

	var w filter
	if f.Status != "" {
		w.add("u.status = ?", f.Status)
	}
	if f.UserType != "" {
		w.add("u.user_type = ?", f.UserType)
	}
	if f.RoleID != "" {
		w.add("u.role_id = ?", f.RoleID)
	}
	w.search(f.Search, "u.first_name", "u.last_name", "u.email")

	total, err := w.count(ctx, r.DB, userFrom)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: count: %w", err)
	}

	limit, args := w.page(f.ListParams)
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM `+userFrom+w.where()+` ORDER BY u.last_name, u.first_name, u.id`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.User, 0, f.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list users: scan row: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: row iteration: %w", err)
	}
	return out, total, nil
}

func (r *SQLUserRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM `+userFrom+` WHERE u.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, mapErr(err))
	}
	return &u, nil
}

func (r *SQLUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM `+userFrom+` WHERE u.email = $1`,
		domain.NormalizeEmail(email)))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", mapErr(err))
	}
	return &u, nil
}

func (r *SQLUserRepository) CreateUser(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = domain.NewID()
	}
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO users (
		id, first_name, last_name, email, phone, password_hash, role_id, user_type,
		client_id, status, profile_photo_url, last_login_at, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.PasswordHash, u.RoleID, u.UserType,
		u.ClientID, u.Status, u.ProfilePhotoURL, u.LastLoginAt, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", mapErr(err))
	}
	return nil
}

// UpdateUser writes profile, role and status fields. The password hash is
// changed only through UpdatePassword.
func (r *SQLUserRepository) UpdateUser(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
	UPDATE users
	SET first_name = $2, last_name = $3, email = $4, phone = $5, role_id = $6, user_type = $7,
		client_id = $8, status = $9, profile_photo_url = $10, updated_at = $11
	WHERE id = $1
	`, u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.RoleID, u.UserType,
		u.ClientID, u.Status, u.ProfilePhotoURL, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	return nil
}

func (r *SQLUserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password for %s: %w", id, err)
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("update password for %s: %w", id, err)
	}
	return nil
}

func (r *SQLUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if _, err := r.DB.ExecContext(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at.UTC()); err != nil {
		return fmt.Errorf("touch last login for %s: %w", id, err)
	}
	return nil
}

func (r *SQLUserRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}
