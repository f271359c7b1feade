package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cargo-logistics-service/internal/domain"
)

// SQLRoleRepository implements ports.RoleRepository. Permissions are stored
// as a JSON array.
type SQLRoleRepository struct{ DB *sql.DB }

func NewSQLRoleRepository(db *sql.DB) *SQLRoleRepository {
	return &SQLRoleRepository{DB: db}
}

const roleSelect = `
	SELECT r.id, r.name, r.description, r.permissions, r.is_system, r.created_at, r.updated_at,
		(SELECT COUNT(*) FROM users u WHERE u.role_id = r.id)
	FROM roles r`

func scanRole(row scanner) (domain.Role, error) {
	var (
		r     domain.Role
		perms string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &perms, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt, &r.UserCount); err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(perms), &r.Permissions); err != nil {
		return r, fmt.Errorf("decode permissions of role %s: %w", r.Name, err)
	}
	return r, nil
}

func (r *SQLRoleRepository) ListRoles(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.DB.QueryContext(ctx, roleSelect+` ORDER BY r.is_system DESC, r.name`)
	if err != nil {
		return nil, fmt.Errorf("list roles: query: %w", err)
	}
	defer rows.Close()

	out := []domain.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("list roles: scan row: %w", err)
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list roles: row iteration: %w", err)
	}
	return out, nil
}

func (r *SQLRoleRepository) GetRole(ctx context.Context, id string) (*domain.Role, error) {
	role, err := scanRole(r.DB.QueryRowContext(ctx, roleSelect+` WHERE r.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get role %s: %w", id, mapErr(err))
	}
	return &role, nil
}

func (r *SQLRoleRepository) GetRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	role, err := scanRole(r.DB.QueryRowContext(ctx, roleSelect+` WHERE r.name = $1`, name))
	if err != nil {
		return nil, fmt.Errorf("get role %q: %w", name, mapErr(err))
	}
	return &role, nil
}

func (r *SQLRoleRepository) CreateRole(ctx context.Context, role *domain.Role) error {
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("create role: encode permissions: %w", err)
	}
	now := time.Now().UTC()
	if role.ID == "" {
		role.ID = domain.NewID()
	}
	role.CreatedAt, role.UpdatedAt = now, now

	_, err = r.DB.ExecContext(ctx, `
	INSERT INTO roles (id, name, description, permissions, is_system, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, role.ID, role.Name, role.Description, string(perms), role.IsSystem, role.CreatedAt, role.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create role: %w", mapErr(err))
	}
	return nil
}

func (r *SQLRoleRepository) UpdateRole(ctx context.Context, role *domain.Role) error {
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("update role: encode permissions: %w", err)
	}
	role.UpdatedAt = time.Now().UTC()

	res, err := r.DB.ExecContext(ctx, `
	UPDATE roles SET name = $2, description = $3, permissions = $4, updated_at = $5
	WHERE id = $1
	`, role.ID, role.Name, role.Description, string(perms), role.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update role %s: %w", role.ID, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("update role %s: %w", role.ID, err)
	}
	return nil
}

func (r *SQLRoleRepository) DeleteRole(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete role: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	used, err := exists(ctx, tx, `SELECT 1 FROM users WHERE role_id = $1 LIMIT 1`, id)
	if err != nil {
		return fmt.Errorf("delete role: check users: %w", err)
	}
	if used {
		return fmt.Errorf("delete role %s: assigned to users: %w", id, domain.ErrConflict)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role %s: %w", id, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("delete role %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete role: commit tx: %w", err)
	}
	return nil
}
