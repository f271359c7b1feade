package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
)

// SQLSupplierRepository implements ports.SupplierRepository.
type SQLSupplierRepository struct{ DB *sql.DB }

func NewSQLSupplierRepository(db *sql.DB) *SQLSupplierRepository {
	return &SQLSupplierRepository{DB: db}
}

const supplierColumns = `id, name, contact_person, email, phone, address, country, service_type, status, rating, notes, created_at, updated_at`

func scanSupplier(row scanner) (domain.Supplier, error) {
	var s domain.Supplier
	err := row.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Email, &s.Phone, &s.Address, &s.Country,
		&s.ServiceType, &s.Status, &s.Rating, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *SQLSupplierRepository) ListSuppliers(ctx context.Context, f domain.SupplierFilter) (_ []domain.Supplier, _ int, err error) {
	defer obs.Time(ctx, "suppliers.repo.List")(&err)

	var w filter
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.ServiceType != "" {
		w.add("service_type = ?", f.ServiceType)
	}
	w.search(f.Search, "name", "email", "contact_person", "country")

	total, err := w.count(ctx, r.DB, "suppliers")
	if err != nil {
		return nil, 0, fmt.Errorf("list suppliers: count: %w", err)
	}

	limit, args := w.page(f.ListParams)
	rows, err := r.DB.QueryContext(ctx, `SELECT `+supplierColumns+` FROM suppliers`+w.where()+` ORDER BY name, id`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list suppliers: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Supplier, 0, f.Limit)
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list suppliers: scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list suppliers: row iteration: %w", err)
	}
	return out, total, nil
}

func (r *SQLSupplierRepository) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	s, err := scanSupplier(r.DB.QueryRowContext(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get supplier %s: %w", id, mapErr(err))
	}
	return &s, nil
}

func (r *SQLSupplierRepository) CreateSupplier(ctx context.Context, s *domain.Supplier) error {
	now := time.Now().UTC()
	if s.ID == "" {
		s.ID = domain.NewID()
	}
	s.CreatedAt, s.UpdatedAt = now, now

	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO suppliers (`+supplierColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, s.ID, s.Name, s.ContactPerson, s.Email, s.Phone, s.Address, s.Country,
		s.ServiceType, s.Status, s.Rating, s.Notes, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create supplier: %w", mapErr(err))
	}
	return nil
}

func (r *SQLSupplierRepository) UpdateSupplier(ctx context.Context, s *domain.Supplier) error {
	s.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
	UPDATE suppliers
	SET name = $2, contact_person = $3, email = $4, phone = $5, address = $6, country = $7,
		service_type = $8, status = $9, rating = $10, notes = $11, updated_at = $12
	WHERE id = $1
	`, s.ID, s.Name, s.ContactPerson, s.Email, s.Phone, s.Address, s.Country,
		s.ServiceType, s.Status, s.Rating, s.Notes, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update supplier %s: %w", s.ID, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("update supplier %s: %w", s.ID, err)
	}
	return nil
}

func (r *SQLSupplierRepository) DeleteSupplier(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete supplier: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"containers", "shipments", "transactions"} {
		used, err := exists(ctx, tx, `SELECT 1 FROM `+table+` WHERE supplier_id = $1 LIMIT 1`, id)
		if err != nil {
			return fmt.Errorf("delete supplier: check %s: %w", table, err)
		}
		if used {
			return fmt.Errorf("delete supplier %s: referenced by %s: %w", id, table, domain.ErrConflict)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete supplier %s: %w", id, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("delete supplier %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete supplier: commit tx: %w", err)
	}
	return nil
}
