package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"

	"github.com/shopspring/decimal"
)

// SQLReportRepository stores generated reports and runs the aggregations
// behind them (ports.ReportRepository and ports.ReportSource).
type SQLReportRepository struct{ DB *sql.DB }

func NewSQLReportRepository(db *sql.DB) *SQLReportRepository {
	return &SQLReportRepository{DB: db}
}

const reportColumns = `id, name, type, format, parameters, result, generated_by, created_at`

func scanReport(row scanner) (domain.Report, error) {
	var (
		r              domain.Report
		params, result string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Type, &r.Format, &params, &result, &r.GeneratedBy, &r.CreatedAt); err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(params), &r.Parameters); err != nil {
		return r, fmt.Errorf("decode report parameters: %w", err)
	}
	if err := json.Unmarshal([]byte(result), &r.Result); err != nil {
		return r, fmt.Errorf("decode report result: %w", err)
	}
	return r, nil
}

func (r *SQLReportRepository) ListReports(ctx context.Context, p domain.ListParams) ([]domain.Report, int, error) {
	var w filter
	if p.Status != "" {
		w.add("type = ?", p.Status)
	}
	w.search(p.Search, "name")

	total, err := w.count(ctx, r.DB, "reports")
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: count: %w", err)
	}

	limit, args := w.page(p)
	rows, err := r.DB.QueryContext(ctx, `SELECT `+reportColumns+` FROM reports`+w.where()+` ORDER BY created_at DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Report, 0, p.Limit)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list reports: scan row: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list reports: row iteration: %w", err)
	}
	return out, total, nil
}

func (r *SQLReportRepository) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	rep, err := scanReport(r.DB.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, mapErr(err))
	}
	return &rep, nil
}

func (r *SQLReportRepository) CreateReport(ctx context.Context, rep *domain.Report) error {
	params, err := json.Marshal(rep.Parameters)
	if err != nil {
		return fmt.Errorf("create report: encode parameters: %w", err)
	}
	result, err := json.Marshal(rep.Result)
	if err != nil {
		return fmt.Errorf("create report: encode result: %w", err)
	}
	if rep.ID == "" {
		rep.ID = domain.NewID()
	}
	rep.CreatedAt = time.Now().UTC()

	_, err = r.DB.ExecContext(ctx, `
	INSERT INTO reports (`+reportColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rep.ID, rep.Name, rep.Type, rep.Format, string(params), string(result), rep.GeneratedBy, rep.CreatedAt)
	if err != nil {
		return fmt.Errorf("create report: %w", mapErr(err))
	}
	return nil
}

func (r *SQLReportRepository) DeleteReport(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report %s: %w", id, err)
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("delete report %s: %w", id, err)
	}
	return nil
}

// reportRange turns inclusive report dates into a half-open interval.
func reportRange(p domain.ReportParameters) (time.Time, time.Time) {
	return domain.DateOnly(p.DateFrom), domain.DateOnly(p.DateTo).AddDate(0, 0, 1)
}

func (r *SQLReportRepository) ShipmentRows(ctx context.Context, p domain.ReportParameters) (_ []domain.Shipment, err error) {
	defer obs.Time(ctx, "reports.repo.ShipmentRows")(&err)

	from, to := reportRange(p)
	var w filter
	w.add("s.created_at >= ? AND s.created_at < ?", from, to)
	if p.ClientID != "" {
		w.add("s.client_id = ?", p.ClientID)
	}
	if p.Status != "" {
		w.add("s.status = ?", p.Status)
	}
	return queryShipments(ctx, r.DB, `SELECT `+shipmentColumns+` FROM `+shipmentFrom+w.where()+` ORDER BY s.created_at`, w.args...)
}

func (r *SQLReportRepository) InvoiceRows(ctx context.Context, p domain.ReportParameters) (_ []domain.Invoice, err error) {
	defer obs.Time(ctx, "reports.repo.InvoiceRows")(&err)

	from, to := reportRange(p)
	var w filter
	w.add("i.issue_date >= ? AND i.issue_date < ?", from, to)
	if p.ClientID != "" {
		w.add("i.client_id = ?", p.ClientID)
	}
	addInvoiceStatus(&w, p.Status, time.Now())
	return queryInvoices(ctx, r.DB, `SELECT `+invoiceColumns+` FROM `+invoiceFrom+w.where()+` ORDER BY i.issue_date, i.invoice_number`, w.args...)
}

func (r *SQLReportRepository) ClientRows(ctx context.Context, p domain.ReportParameters) (_ []domain.ClientActivity, err error) {
	defer obs.Time(ctx, "reports.repo.ClientRows")(&err)

	from, to := reportRange(p)
	// $1 and $2 hold the range; filter placeholders follow.
	w := filter{args: []any{from, to}}
	if p.ClientID != "" {
		w.add("c.id = ?", p.ClientID)
	}
	if p.Status != "" {
		w.add("c.status = ?", p.Status)
	}

	rows, err := r.DB.QueryContext(ctx, `
	SELECT `+prefixed("c", clientColumns)+`,
		(SELECT COUNT(*) FROM shipments s WHERE s.client_id = c.id AND s.created_at >= $1 AND s.created_at < $2),
		(SELECT SUM(i.total) FROM invoices i WHERE i.client_id = c.id AND i.status <> 'cancelled' AND i.issue_date >= $1 AND i.issue_date < $2),
		(SELECT SUM(i.amount_paid) FROM invoices i WHERE i.client_id = c.id AND i.status <> 'cancelled' AND i.issue_date >= $1 AND i.issue_date < $2)
	FROM clients c`+w.where()+`
	ORDER BY c.name
	`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("client rows: query: %w", err)
	}
	defer rows.Close()

	out := []domain.ClientActivity{}
	for rows.Next() {
		var (
			a              domain.ClientActivity
			invoiced, paid decimal.NullDecimal
		)
		c := &a.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.ContactPerson, &c.Email, &c.Phone, &c.Address,
			&c.City, &c.Country, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
			&a.Shipments, &invoiced, &paid); err != nil {
			return nil, fmt.Errorf("client rows: scan row: %w", err)
		}
		a.Invoiced = invoiced.Decimal.Round(2)
		a.Paid = paid.Decimal.Round(2)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("client rows: row iteration: %w", err)
	}
	return out, nil
}

func (r *SQLReportRepository) ContainerRows(ctx context.Context, p domain.ReportParameters) (_ []domain.ContainerUsage, err error) {
	defer obs.Time(ctx, "reports.repo.ContainerRows")(&err)

	from, to := reportRange(p)
	w := filter{args: []any{from, to}}
	if p.Status != "" {
		w.add("k.status = ?", p.Status)
	}

	rows, err := r.DB.QueryContext(ctx, `
	SELECT k.id, k.container_number, k.type, k.status, k.location, k.supplier_id, k.max_weight_kg,
		k.notes, k.created_at, k.updated_at,
		(SELECT COUNT(*) FROM shipments s WHERE s.container_id = k.id AND s.created_at >= $1 AND s.created_at < $2)
	FROM containers k`+w.where()+`
	ORDER BY k.container_number
	`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("container rows: query: %w", err)
	}
	defer rows.Close()

	out := []domain.ContainerUsage{}
	for rows.Next() {
		var u domain.ContainerUsage
		c := &u.Container
		if err := rows.Scan(&c.ID, &c.ContainerNumber, &c.Type, &c.Status, &c.Location, &c.SupplierID,
			&c.MaxWeightKg, &c.Notes, &c.CreatedAt, &c.UpdatedAt, &u.Shipments); err != nil {
			return nil, fmt.Errorf("container rows: scan row: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("container rows: row iteration: %w", err)
	}
	return out, nil
}

// prefixed qualifies each column in a comma separated list with alias.
func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
