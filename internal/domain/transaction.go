package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool { return t == TransactionIncome || t == TransactionExpense }

var (
	ExpenseCategories = []string{
		"fuel", "port_fees", "customs", "container_lease", "maintenance",
		"salaries", "office", "insurance", "other",
	}
	IncomeCategories = []string{
		"freight", "handling", "storage", "customs_service", "invoice_payment", "other",
	}
	PaymentMethods = []string{"cash", "bank_transfer", "card", "cheque", "other"}
)

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Transaction is a single income or expense entry in the books.
type Transaction struct {
	ID            string
	Type          TransactionType
	Category      string
	Amount        decimal.Decimal
	Currency      string
	Date          time.Time
	Description   string
	Reference     string
	PaymentMethod string
	ClientID      *string
	SupplierID    *string
	ShipmentID    *string
	InvoiceID     *string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t *Transaction) Normalize() {
	t.Category = strings.ToLower(strings.TrimSpace(t.Category))
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	t.Description = strings.TrimSpace(t.Description)
	if t.PaymentMethod == "" {
		t.PaymentMethod = "bank_transfer"
	}
	t.ClientID = blankToNil(t.ClientID)
	t.SupplierID = blankToNil(t.SupplierID)
	t.ShipmentID = blankToNil(t.ShipmentID)
	t.InvoiceID = blankToNil(t.InvoiceID)
}

func (t *Transaction) Validate() error {
	v := &ValidationError{}
	switch t.Type {
	case TransactionIncome:
		if !contains(IncomeCategories, t.Category) {
			v.Add("category", "is not a known income category")
		}
	case TransactionExpense:
		if !contains(ExpenseCategories, t.Category) {
			v.Add("category", "is not a known expense category")
		}
	default:
		v.Add("type", "must be income or expense")
	}
	if !t.Amount.IsPositive() {
		v.Add("amount", "must be greater than zero")
	}
	if !IsCurrency(t.Currency) {
		v.Add("currency", "must be a 3 letter ISO code")
	}
	if t.Date.IsZero() {
		v.Add("date", "is required")
	}
	if !contains(PaymentMethods, t.PaymentMethod) {
		v.Add("paymentMethod", "is not a known payment method")
	}
	return v.Err()
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	ListParams
	Type     TransactionType
	Category string
	From     *time.Time
	To       *time.Time
}

// CategoryTotal is an aggregated amount for one (type, category) pair.
type CategoryTotal struct {
	Type     TransactionType
	Category string
	Total    decimal.Decimal
}

// MonthTotal is an aggregated amount for one (month, type) pair. Month is
// formatted YYYY-MM.
type MonthTotal struct {
	Month string
	Type  TransactionType
	Total decimal.Decimal
}

type FinancialSummary struct {
	From         time.Time
	To           time.Time
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	NetProfit    decimal.Decimal
	ByCategory   []CategoryTotal
	ByMonth      []MonthTotal
}

// NewFinancialSummary folds category totals into income/expense/net figures.
func NewFinancialSummary(from, to time.Time, cats []CategoryTotal, months []MonthTotal) FinancialSummary {
	s := FinancialSummary{
		From:         from,
		To:           to,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		ByCategory:   cats,
		ByMonth:      months,
	}
	for _, c := range cats {
		if c.Type == TransactionIncome {
			s.TotalIncome = s.TotalIncome.Add(c.Total)
		} else {
			s.TotalExpense = s.TotalExpense.Add(c.Total)
		}
	}
	s.NetProfit = s.TotalIncome.Sub(s.TotalExpense)
	if s.ByCategory == nil {
		s.ByCategory = []CategoryTotal{}
	}
	if s.ByMonth == nil {
		s.ByMonth = []MonthTotal{}
	}
	return s
}
