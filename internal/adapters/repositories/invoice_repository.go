package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"

	"github.com/shopspring/decimal"
)

// SQLInvoiceRepository implements ports.InvoiceRepository.
type SQLInvoiceRepository struct{ DB *sql.DB }

func NewSQLInvoiceRepository(db *sql.DB) *SQLInvoiceRepository {
	return &SQLInvoiceRepository{DB: db}
}

const invoiceColumns = `i.id, i.invoice_number, i.client_id, i.shipment_id, i.issue_date, i.due_date,
	i.currency, i.subtotal, i.tax_rate, i.tax_amount, i.discount, i.total, i.amount_paid,
	i.status, i.notes, i.paid_at, i.created_at, i.updated_at, c.name`

const invoiceFrom = `invoices i JOIN clients c ON c.id = i.client_id`

func scanInvoice(row scanner) (domain.Invoice, error) {
	var inv domain.Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ClientID, &inv.ShipmentID, &inv.IssueDate, &inv.DueDate,
		&inv.Currency, &inv.Subtotal, &inv.TaxRate, &inv.TaxAmount, &inv.Discount, &inv.Total, &inv.AmountPaid,
		&inv.Status, &inv.Notes, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt, &inv.ClientName)
	return inv, err
}

func queryInvoices(ctx context.Context, q queryer, query string, args ...any) ([]domain.Invoice, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	out := []domain.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("query invoices: scan row: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query invoices: row iteration: %w", err)
	}
	return out, nil
}

// addInvoiceStatus filters on the effective status, where overdue is derived
// from the due date of open invoices.
func addInvoiceStatus(w *filter, status string, today time.Time) {
	today = domain.DateOnly(today)
	switch domain.InvoiceStatus(status) {
	case "":
	case domain.InvoiceOverdue:
		w.add("(i.status = 'overdue' OR (i.status IN ('sent', 'partially_paid') AND i.due_date < ?))", today)
	case domain.InvoiceSent, domain.InvoicePartiallyPaid:
		w.add("i.status = ? AND i.due_date >= ?", status, today)
	default:
		w.add("i.status = ?", status)
	}
}

func (r *SQLInvoiceRepository) ListInvoices(ctx context.Context, f domain.InvoiceFilter) (_ []domain.Invoice, _ int, err error) {
	defer obs.Time(ctx, "invoices.repo.List")(&err)

	var w filter
	addInvoiceStatus(&w, f.Status, f.Today)
	if f.ClientID != "" {
		w.add("i.client_id = ?", f.ClientID)
	}
	if f.ExcludeDrafts {
		w.add("i.status <> ?", string(domain.InvoiceDraft))
	}
	if f.From != nil {
		w.add("i.issue_date >= ?", f.From.UTC())
	}
	if f.To != nil {
		w.add("i.issue_date < ?", f.To.UTC())
	}
	w.search(f.Search, "i.invoice_number", "c.name", "i.notes")

	total, err := w.count(ctx, r.DB, invoiceFrom)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: count: %w", err)
	}

	limit, args := w.page(f.ListParams)
	out, err := queryInvoices(ctx, r.DB,
		`SELECT `+invoiceColumns+` FROM `+invoiceFrom+w.where()+` ORDER BY i.issue_date DESC, i.invoice_number DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return out, total, nil
}

func (r *SQLInvoiceRepository) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.DB.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM `+invoiceFrom+` WHERE i.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get invoice %s: %w", id, mapErr(err))
	}

	rows, err := r.DB.QueryContext(ctx, `
	SELECT description, quantity, unit_price, amount
	FROM invoice_items
	WHERE invoice_id = $1
	ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice %s: query items: %w", id, err)
	}
	defer rows.Close()

	inv.Items = []domain.InvoiceItem{}
	for rows.Next() {
		var it domain.InvoiceItem
		if err := rows.Scan(&it.Description, &it.Quantity, &it.UnitPrice, &it.Amount); err != nil {
			return nil, fmt.Errorf("get invoice %s: scan item: %w", id, err)
		}
		inv.Items = append(inv.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get invoice %s: item iteration: %w", id, err)
	}
	return &inv, nil
}

func writeInvoiceItems(ctx context.Context, tx *sql.Tx, inv *domain.Invoice) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, inv.ID); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO invoice_items (invoice_id, position, description, quantity, unit_price, amount)
	VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("prepare items: %w", err)
	}
	defer stmt.Close()

	for i, it := range inv.Items {
		if _, err := stmt.ExecContext(ctx, inv.ID, i, it.Description, it.Quantity, it.UnitPrice, it.Amount); err != nil {
			return fmt.Errorf("insert item %d: %w", i, err)
		}
	}
	return nil
}

func (r *SQLInvoiceRepository) CreateInvoice(ctx context.Context, inv *domain.Invoice) (err error) {
	defer obs.Time(ctx, "invoices.repo.Create")(&err)

	now := time.Now().UTC()
	if inv.ID == "" {
		inv.ID = domain.NewID()
	}
	inv.CreatedAt, inv.UpdatedAt = now, now

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create invoice: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO invoices (
		id, invoice_number, client_id, shipment_id, issue_date, due_date, currency,
		subtotal, tax_rate, tax_amount, discount, total, amount_paid, status, notes, paid_at,
		created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, inv.ID, inv.InvoiceNumber, inv.ClientID, inv.ShipmentID, inv.IssueDate.UTC(), inv.DueDate.UTC(), inv.Currency,
		inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.Discount, inv.Total, inv.AmountPaid, inv.Status, inv.Notes, inv.PaidAt,
		inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create invoice: %w", mapErr(err))
	}
	if err := writeInvoiceItems(ctx, tx, inv); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create invoice: commit tx: %w", err)
	}
	return nil
}

func updateInvoiceRow(ctx context.Context, q queryer, inv *domain.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	res, err := q.ExecContext(ctx, `
	UPDATE invoices
	SET client_id = $2, shipment_id = $3, issue_date = $4, due_date = $5, currency = $6,
		subtotal = $7, tax_rate = $8, tax_amount = $9, discount = $10, total = $11,
		amount_paid = $12, status = $13, notes = $14, paid_at = $15, updated_at = $16
	WHERE id = $1
	`, inv.ID, inv.ClientID, inv.ShipmentID, inv.IssueDate.UTC(), inv.DueDate.UTC(), inv.Currency,
		inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.Discount, inv.Total,
		inv.AmountPaid, inv.Status, inv.Notes, inv.PaidAt, inv.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	return affectedOne(res)
}

func (r *SQLInvoiceRepository) UpdateInvoice(ctx context.Context, inv *domain.Invoice) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update invoice: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateInvoiceRow(ctx, tx, inv); err != nil {
		return fmt.Errorf("update invoice %s: %w", inv.ID, err)
	}
	if err := writeInvoiceItems(ctx, tx, inv); err != nil {
		return fmt.Errorf("update invoice %s: %w", inv.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update invoice: commit tx: %w", err)
	}
	return nil
}

func (r *SQLInvoiceRepository) DeleteInvoice(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice %s: %w", id, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("delete invoice %s: %w", id, err)
	}
	return nil
}

// NextInvoiceSequence continues after the highest number issued for the
// year. Deleted drafts leave gaps that are not reused.
func (r *SQLInvoiceRepository) NextInvoiceSequence(ctx context.Context, prefix string, year int) (_ int, err error) {
	defer obs.Time(ctx, "invoices.repo.NextInvoiceSequence")(&err)

	stem := domain.InvoiceNumberStem(prefix, year)
	rows, err := r.DB.QueryContext(ctx, `SELECT invoice_number FROM invoices WHERE invoice_number LIKE $1`, stem+"%")
	if err != nil {
		return 0, fmt.Errorf("next invoice sequence: %w", err)
	}
	defer rows.Close()

	last := 0
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return 0, fmt.Errorf("next invoice sequence: scan: %w", err)
		}
		rest, ok := strings.CutPrefix(number, stem)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > last {
			last = n
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("next invoice sequence: %w", err)
	}
	return last + 1, nil
}

func (r *SQLInvoiceRepository) RecordPayment(ctx context.Context, inv *domain.Invoice, income *domain.Transaction) (err error) {
	defer obs.Time(ctx, "invoices.repo.RecordPayment")(&err)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record payment: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateInvoiceRow(ctx, tx, inv); err != nil {
		return fmt.Errorf("record payment on %s: %w", inv.InvoiceNumber, err)
	}
	if income != nil {
		if err := insertTransaction(ctx, tx, income); err != nil {
			return fmt.Errorf("record payment on %s: %w", inv.InvoiceNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record payment: commit tx: %w", err)
	}
	return nil
}

func (r *SQLInvoiceRepository) OutstandingSummary(ctx context.Context, clientID string, today time.Time) (ports.OutstandingSummary, error) {
	var w filter
	w.add("i.status IN ('sent', 'partially_paid', 'overdue')")
	if clientID != "" {
		w.add("i.client_id = ?", clientID)
	}
	args := append(append([]any(nil), w.args...), domain.DateOnly(today))
	query := fmt.Sprintf(`
	SELECT SUM(i.total - i.amount_paid),
		COUNT(*),
		SUM(CASE WHEN i.status = 'overdue' OR i.due_date < $%d THEN 1 ELSE 0 END)
	FROM invoices i`, len(args)) + w.where()

	var (
		out     ports.OutstandingSummary
		amount  decimal.NullDecimal
		overdue sql.NullInt64
	)
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&amount, &out.Unpaid, &overdue); err != nil {
		return out, fmt.Errorf("outstanding summary: %w", err)
	}
	out.Amount = amount.Decimal.Round(2)
	out.Overdue = int(overdue.Int64)
	return out, nil
}
