package services

import (
	"context"
	"fmt"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"
)

type FinanceService struct {
	Repo     ports.TransactionRepository
	Settings *SettingsService
	Clock    Clock
}

func (s *FinanceService) List(ctx context.Context, f domain.TransactionFilter) (_ domain.Page[domain.Transaction], err error) {
	defer obs.Time(ctx, "finance.List")(&err)

	f.ListParams = f.ListParams.Normalize()
	if f.Type != "" && !f.Type.Valid() {
		return domain.Page[domain.Transaction]{}, domain.NewValidationError("type", "must be income or expense")
	}
	items, total, err := s.Repo.ListTransactions(ctx, f)
	if err != nil {
		return domain.Page[domain.Transaction]{}, fmt.Errorf("list transactions: %w", err)
	}
	return domain.NewPage(items, total, f.ListParams), nil
}

func (s *FinanceService) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	t, err := s.Repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *FinanceService) prepare(ctx context.Context, t *domain.Transaction) error {
	if t.Currency == "" {
		st, err := s.Settings.Get(ctx)
		if err != nil {
			return err
		}
		t.Currency = st.Currency
	}
	if t.Date.IsZero() {
		t.Date = domain.DateOnly(s.Clock.now())
	}
	t.Normalize()
	return t.Validate()
}

func (s *FinanceService) Create(ctx context.Context, t *domain.Transaction) error {
	t.ID = ""
	if err := s.prepare(ctx, t); err != nil {
		return err
	}
	if err := s.Repo.CreateTransaction(ctx, t); err != nil {
		if isConflict(err) {
			return domain.NewValidationError("reference", "points at a record that does not exist")
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// Update edits a manual entry. Invoice payments are owned by their invoice.
func (s *FinanceService) Update(ctx context.Context, id string, t *domain.Transaction) error {
	existing, err := s.Repo.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if existing.InvoiceID != nil {
		return fmt.Errorf("update transaction %s: recorded against an invoice: %w", id, domain.ErrInvalidState)
	}

	t.ID = id
	t.CreatedBy = existing.CreatedBy
	t.CreatedAt = existing.CreatedAt
	t.InvoiceID = nil
	if err := s.prepare(ctx, t); err != nil {
		return err
	}
	if err := s.Repo.UpdateTransaction(ctx, t); err != nil {
		if isConflict(err) {
			return domain.NewValidationError("reference", "points at a record that does not exist")
		}
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (s *FinanceService) Delete(ctx context.Context, id string) error {
	existing, err := s.Repo.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if existing.InvoiceID != nil {
		return fmt.Errorf("delete transaction %s: recorded against an invoice: %w", id, domain.ErrInvalidState)
	}
	if err := s.Repo.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// Summary totals income and expense over the inclusive date range. Missing
// bounds default to the current calendar year.
func (s *FinanceService) Summary(ctx context.Context, from, to *time.Time) (_ domain.FinancialSummary, err error) {
	defer obs.Time(ctx, "finance.Summary")(&err)

	now := s.Clock.now()
	start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), 12, 31, 0, 0, 0, 0, time.UTC)
	if from != nil {
		start = domain.DateOnly(*from)
	}
	if to != nil {
		end = domain.DateOnly(*to)
	}
	if end.Before(start) {
		return domain.FinancialSummary{}, domain.NewValidationError("to", "must not be before from")
	}

	// Repository ranges are half open.
	until := end.AddDate(0, 0, 1)
	cats, err := s.Repo.CategoryTotals(ctx, start, until)
	if err != nil {
		return domain.FinancialSummary{}, fmt.Errorf("financial summary: %w", err)
	}
	months, err := s.Repo.MonthTotals(ctx, start, until)
	if err != nil {
		return domain.FinancialSummary{}, fmt.Errorf("financial summary: %w", err)
	}
	return domain.NewFinancialSummary(start, end, cats, months), nil
}
