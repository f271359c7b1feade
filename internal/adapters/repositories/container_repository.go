package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
)

// SQLContainerRepository implements ports.ContainerRepository.
type SQLContainerRepository struct{ DB *sql.DB }

func NewSQLContainerRepository(db *sql.DB) *SQLContainerRepository {
	return &SQLContainerRepository{DB: db}
}

const containerColumns = `id, container_number, type, status, location, supplier_id, max_weight_kg, notes, created_at, updated_at`

func scanContainer(row scanner) (domain.Container, error) {
	var c domain.Container
	err := row.Scan(&c.ID, &c.ContainerNumber, &c.Type, &c.Status, &c.Location, &c.SupplierID,
		&c.MaxWeightKg, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *SQLContainerRepository) ListContainers(ctx context.Context, f domain.ContainerFilter) (_ []domain.Container, _ int, err error) {
	defer obs.Time(ctx, "containers.repo.List")(&err)

	var w filter
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Type != "" {
		w.add("type = ?", f.Type)
	}
	w.search(f.Search, "container_number", "location")

	total, err := w.count(ctx, r.DB, "containers")
	if err != nil {
		return nil, 0, fmt.Errorf("list containers: count: %w", err)
	}

	limit, args := w.page(f.ListParams)
	rows, err := r.DB.QueryContext(ctx, `SELECT `+containerColumns+` FROM containers`+w.where()+` ORDER BY container_number`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list containers: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Container, 0, f.Limit)
	for rows.Next() {
		c, err := scanContainer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list containers: scan row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list containers: row iteration: %w", err)
	}
	return out, total, nil
}

func (r *SQLContainerRepository) GetContainer(ctx context.Context, id string) (*domain.Container, error) {
	c, err := scanContainer(r.DB.QueryRowContext(ctx, `SELECT `+containerColumns+` FROM containers WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get container %s: %w", id, mapErr(err))
	}
	return &c, nil
}

func (r *SQLContainerRepository) CreateContainer(ctx context.Context, c *domain.Container) error {
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = domain.NewID()
	}
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO containers (`+containerColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, c.ID, c.ContainerNumber, c.Type, c.Status, c.Location, c.SupplierID, c.MaxWeightKg,
		c.Notes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create container: %w", mapErr(err))
	}
	return nil
}

func (r *SQLContainerRepository) UpdateContainer(ctx context.Context, c *domain.Container) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
	UPDATE containers
	SET container_number = $2, type = $3, status = $4, location = $5, supplier_id = $6,
		max_weight_kg = $7, notes = $8, updated_at = $9
	WHERE id = $1
	`, c.ID, c.ContainerNumber, c.Type, c.Status, c.Location, c.SupplierID, c.MaxWeightKg,
		c.Notes, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update container %s: %w", c.ID, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("update container %s: %w", c.ID, err)
	}
	return nil
}

func (r *SQLContainerRepository) SetContainerStatus(ctx context.Context, id string, status domain.ContainerStatus) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE containers SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set container %s status: %w", id, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("set container %s status: %w", id, err)
	}
	return nil
}

func (r *SQLContainerRepository) DeleteContainer(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete container: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	used, err := exists(ctx, tx, `
	SELECT 1 FROM shipments
	WHERE container_id = $1 AND status NOT IN ('delivered', 'cancelled')
	LIMIT 1
	`, id)
	if err != nil {
		return fmt.Errorf("delete container: check shipments: %w", err)
	}
	if used {
		return fmt.Errorf("delete container %s: in use by an active shipment: %w", id, domain.ErrConflict)
	}

	// Finished shipments keep their history without the container link.
	if _, err := tx.ExecContext(ctx, `UPDATE shipments SET container_id = NULL WHERE container_id = $1`, id); err != nil {
		return fmt.Errorf("delete container: detach shipments: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM containers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete container %s: %w", id, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("delete container %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete container: commit tx: %w", err)
	}
	return nil
}

func (r *SQLContainerRepository) CountContainersByStatus(ctx context.Context) (map[string]int, error) {
	return countByStatus(ctx, r.DB, `SELECT status, COUNT(*) FROM containers GROUP BY status`)
}

func countByStatus(ctx context.Context, q queryer, query string, args ...any) (map[string]int, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count by status: query: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("count by status: scan row: %w", err)
		}
		out[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count by status: row iteration: %w", err)
	}
	return out, nil
}
