package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"

	"github.com/shopspring/decimal"
)

// SQLClientRepository implements ports.ClientRepository.
type SQLClientRepository struct{ DB *sql.DB }

func NewSQLClientRepository(db *sql.DB) *SQLClientRepository {
	return &SQLClientRepository{DB: db}
}

const clientColumns = `id, name, contact_person, email, phone, address, city, country, status, notes, created_at, updated_at`

func scanClient(row scanner) (domain.Client, error) {
	var c domain.Client
	err := row.Scan(&c.ID, &c.Name, &c.ContactPerson, &c.Email, &c.Phone, &c.Address,
		&c.City, &c.Country, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *SQLClientRepository) ListClients(ctx context.Context, f domain.ClientFilter) (_ []domain.Client, _ int, err error) {
	defer obs.Time(ctx, "clients.repo.List")(&err)

	var w filter
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	w.search(f.Search, "name", "email", "contact_person", "city", "country")

	total, err := w.count(ctx, r.DB, "clients")
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: count: %w", err)
	}

	limit, args := w.page(f.ListParams)
	rows, err := r.DB.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients`+w.where()+` ORDER BY name, id`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Client, 0, f.Limit)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list clients: scan row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list clients: row iteration: %w", err)
	}
	return out, total, nil
}

func (r *SQLClientRepository) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	c, err := scanClient(r.DB.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get client %s: %w", id, mapErr(err))
	}
	return &c, nil
}

func (r *SQLClientRepository) GetClientDetail(ctx context.Context, id string) (*domain.ClientDetail, error) {
	c, err := r.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &domain.ClientDetail{Client: *c}

	err = r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM shipments WHERE client_id = $1`, id).Scan(&d.ShipmentCount)
	if err != nil {
		return nil, fmt.Errorf("get client detail: count shipments: %w", err)
	}

	var balance decimal.NullDecimal
	err = r.DB.QueryRowContext(ctx, `
	SELECT SUM(total - amount_paid)
	FROM invoices
	WHERE client_id = $1 AND status IN ('sent', 'partially_paid', 'overdue')
	`, id).Scan(&balance)
	if err != nil {
		return nil, fmt.Errorf("get client detail: sum balance: %w", err)
	}
	d.OutstandingBalance = balance.Decimal.Round(2)
	return d, nil
}

func (r *SQLClientRepository) CreateClient(ctx context.Context, c *domain.Client) (err error) {
	defer obs.Time(ctx, "clients.repo.Create")(&err)

	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = domain.NewID()
	}
	c.CreatedAt, c.UpdatedAt = now, now

	_, err = r.DB.ExecContext(ctx, `
	INSERT INTO clients (`+clientColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, c.ID, c.Name, c.ContactPerson, c.Email, c.Phone, c.Address, c.City, c.Country,
		c.Status, c.Notes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create client: %w", mapErr(err))
	}
	return nil
}

func (r *SQLClientRepository) UpdateClient(ctx context.Context, c *domain.Client) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
	UPDATE clients
	SET name = $2, contact_person = $3, email = $4, phone = $5, address = $6,
		city = $7, country = $8, status = $9, notes = $10, updated_at = $11
	WHERE id = $1
	`, c.ID, c.Name, c.ContactPerson, c.Email, c.Phone, c.Address, c.City, c.Country,
		c.Status, c.Notes, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update client %s: %w", c.ID, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("update client %s: %w", c.ID, err)
	}
	return nil
}

func (r *SQLClientRepository) DeleteClient(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete client: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"shipments", "invoices", "users", "support_tickets"} {
		used, err := exists(ctx, tx, `SELECT 1 FROM `+table+` WHERE client_id = $1 LIMIT 1`, id)
		if err != nil {
			return fmt.Errorf("delete client: check %s: %w", table, err)
		}
		if used {
			return fmt.Errorf("delete client %s: referenced by %s: %w", id, table, domain.ErrConflict)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client %s: %w", id, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete client: commit tx: %w", err)
	}
	return nil
}

func (r *SQLClientRepository) CountClients(ctx context.Context, status domain.ClientStatus) (int, error) {
	var w filter
	if status != "" {
		w.add("status = ?", status)
	}
	n, err := w.count(ctx, r.DB, "clients")
	if err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}
