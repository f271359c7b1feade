package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cargo-logistics-service/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// mapErr translates driver errors into domain sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrConflict)
		case "23503":
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrConflict)
		}
		return err
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return fmt.Errorf("%s: %w", msg, domain.ErrConflict)
	}
	return err
}

// filter accumulates WHERE conditions written with ? markers and renders them
// with numbered $n placeholders, which both pgx and sqlite accept.
type filter struct {
	conds []string
	args  []any
}

func (f *filter) add(cond string, args ...any) {
	var b strings.Builder
	i := 0
	for _, r := range cond {
		if r == '?' && i < len(args) {
			f.args = append(f.args, args[i])
			i++
			fmt.Fprintf(&b, "$%d", len(f.args))
			continue
		}
		b.WriteRune(r)
	}
	f.conds = append(f.conds, b.String())
}

// search adds a case-insensitive substring match over cols.
func (f *filter) search(term string, cols ...string) {
	if term == "" || len(cols) == 0 {
		return
	}
	pattern := "%" + strings.ToLower(term) + "%"
	parts := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		parts[i] = "LOWER(" + c + ") LIKE ?"
		args[i] = pattern
	}
	f.add("("+strings.Join(parts, " OR ")+")", args...)
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// page renders LIMIT/OFFSET and returns the full argument list.
func (f *filter) page(p domain.ListParams) (string, []any) {
	n := len(f.args)
	args := append(append([]any(nil), f.args...), p.Limit, p.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), args
}

func (f *filter) count(ctx context.Context, q queryer, from string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+from+f.where(), f.args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// exists reports whether query returns at least one row.
func exists(ctx context.Context, q queryer, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
