package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"

	"github.com/shopspring/decimal"
)

// SQLTransactionRepository implements ports.TransactionRepository.
type SQLTransactionRepository struct{ DB *sql.DB }

func NewSQLTransactionRepository(db *sql.DB) *SQLTransactionRepository {
	return &SQLTransactionRepository{DB: db}
}

const transactionColumns = `id, type, category, amount, currency, date, description, reference, payment_method,
	client_id, supplier_id, shipment_id, invoice_id, created_by, created_at, updated_at`

func scanTransaction(row scanner) (domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(&t.ID, &t.Type, &t.Category, &t.Amount, &t.Currency, &t.Date, &t.Description,
		&t.Reference, &t.PaymentMethod, &t.ClientID, &t.SupplierID, &t.ShipmentID, &t.InvoiceID,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func insertTransaction(ctx context.Context, q queryer, t *domain.Transaction) error {
	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = domain.NewID()
	}
	t.CreatedAt, t.UpdatedAt = now, now

	_, err := q.ExecContext(ctx, `
	INSERT INTO transactions (`+transactionColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, t.ID, t.Type, t.Category, t.Amount, t.Currency, t.Date.UTC(), t.Description, t.Reference,
		t.PaymentMethod, t.ClientID, t.SupplierID, t.ShipmentID, t.InvoiceID, t.CreatedBy,
		t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", mapErr(err))
	}
	return nil
}

func (r *SQLTransactionRepository) ListTransactions(ctx context.Context, f domain.TransactionFilter) (_ []domain.Transaction, _ int, err error) {
	defer obs.Time(ctx, "transactions.repo.List")(&err)

	var w filter
	if f.Type != "" {
		w.add("type = ?", f.Type)
	}
	if f.Category != "" {
		w.add("category = ?", f.Category)
	}
	if f.From != nil {
		w.add("date >= ?", f.From.UTC())
	}
	if f.To != nil {
		w.add("date < ?", f.To.UTC())
	}
	w.search(f.Search, "description", "reference", "category")

	total, err := w.count(ctx, r.DB, "transactions")
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: count: %w", err)
	}

	limit, args := w.page(f.ListParams)
	rows, err := r.DB.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions`+w.where()+` ORDER BY date DESC, created_at DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0, f.Limit)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list transactions: scan row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list transactions: row iteration: %w", err)
	}
	return out, total, nil
}

func (r *SQLTransactionRepository) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	t, err := scanTransaction(r.DB.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", id, mapErr(err))
	}
	return &t, nil
}

func (r *SQLTransactionRepository) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	return insertTransaction(ctx, r.DB, t)
}

func (r *SQLTransactionRepository) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
	UPDATE transactions
	SET type = $2, category = $3, amount = $4, currency = $5, date = $6, description = $7,
		reference = $8, payment_method = $9, client_id = $10, supplier_id = $11,
		shipment_id = $12, invoice_id = $13, updated_at = $14
	WHERE id = $1
	`, t.ID, t.Type, t.Category, t.Amount, t.Currency, t.Date.UTC(), t.Description,
		t.Reference, t.PaymentMethod, t.ClientID, t.SupplierID, t.ShipmentID, t.InvoiceID, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	return nil
}

func (r *SQLTransactionRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

func (r *SQLTransactionRepository) CategoryTotals(ctx context.Context, from, to time.Time) (_ []domain.CategoryTotal, err error) {
	defer obs.Time(ctx, "transactions.repo.CategoryTotals")(&err)

	rows, err := r.DB.QueryContext(ctx, `
	SELECT type, category, SUM(amount)
	FROM transactions
	WHERE date >= $1 AND date < $2
	GROUP BY type, category
	ORDER BY type, category
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("category totals: query: %w", err)
	}
	defer rows.Close()

	out := []domain.CategoryTotal{}
	for rows.Next() {
		var c domain.CategoryTotal
		if err := rows.Scan(&c.Type, &c.Category, &c.Total); err != nil {
			return nil, fmt.Errorf("category totals: scan row: %w", err)
		}
		c.Total = c.Total.Round(2)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category totals: row iteration: %w", err)
	}
	return out, nil
}

// MonthTotals buckets amounts by calendar month in Go, since the two SQL
// dialects format dates differently.
func (r *SQLTransactionRepository) MonthTotals(ctx context.Context, from, to time.Time) (_ []domain.MonthTotal, err error) {
	defer obs.Time(ctx, "transactions.repo.MonthTotals")(&err)

	rows, err := r.DB.QueryContext(ctx, `
	SELECT type, date, amount
	FROM transactions
	WHERE date >= $1 AND date < $2
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("month totals: query: %w", err)
	}
	defer rows.Close()

	type bucket struct {
		month string
		typ   domain.TransactionType
	}
	sums := map[bucket]decimal.Decimal{}
	for rows.Next() {
		var (
			typ    domain.TransactionType
			date   time.Time
			amount decimal.Decimal
		)
		if err := rows.Scan(&typ, &date, &amount); err != nil {
			return nil, fmt.Errorf("month totals: scan row: %w", err)
		}
		k := bucket{month: date.UTC().Format("2006-01"), typ: typ}
		sums[k] = sums[k].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("month totals: row iteration: %w", err)
	}

	out := make([]domain.MonthTotal, 0, len(sums))
	for k, v := range sums {
		out = append(out, domain.MonthTotal{Month: k.month, Type: k.typ, Total: v.Round(2)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}
