package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "draft"
	InvoiceSent          InvoiceStatus = "sent"
	InvoicePaid          InvoiceStatus = "paid"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceOverdue       InvoiceStatus = "overdue"
	InvoiceCancelled     InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoicePartiallyPaid, InvoiceOverdue, InvoiceCancelled:
		return true
	}
	return false
}

// Outstanding reports whether money is still expected for the invoice.
func (s InvoiceStatus) Outstanding() bool {
	return s == InvoiceSent || s == InvoicePartiallyPaid || s == InvoiceOverdue
}

var hundred = decimal.NewFromInt(100)

type InvoiceItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

type Invoice struct {
	ID            string
	InvoiceNumber string
	ClientID      string
	ShipmentID    *string
	IssueDate     time.Time
	DueDate       time.Time
	Currency      string
	Items         []InvoiceItem
	Subtotal      decimal.Decimal
	TaxRate       decimal.Decimal
	TaxAmount     decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	AmountPaid    decimal.Decimal
	Status        InvoiceStatus
	Notes         string
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	ClientName string
}

func (inv *Invoice) Normalize() {
	inv.ClientID = strings.TrimSpace(inv.ClientID)
	inv.Currency = strings.ToUpper(strings.TrimSpace(inv.Currency))
	inv.ShipmentID = blankToNil(inv.ShipmentID)
	if inv.Status == "" {
		inv.Status = InvoiceDraft
	}
	for i := range inv.Items {
		inv.Items[i].Description = strings.TrimSpace(inv.Items[i].Description)
	}
}

// Recalculate derives line amounts, subtotal, tax and total from the items.
func (inv *Invoice) Recalculate() {
	subtotal := decimal.Zero
	for i := range inv.Items {
		it := &inv.Items[i]
		it.Amount = it.Quantity.Mul(it.UnitPrice).Round(2)
		subtotal = subtotal.Add(it.Amount)
	}
	inv.Subtotal = subtotal
	inv.TaxAmount = subtotal.Mul(inv.TaxRate).Div(hundred).Round(2)
	inv.Total = subtotal.Add(inv.TaxAmount).Sub(inv.Discount)
}

func (inv *Invoice) Validate() error {
	v := &ValidationError{}
	requireText(v, "clientId", inv.ClientID)
	if !IsCurrency(inv.Currency) {
		v.Add("currency", "must be a 3 letter ISO code")
	}
	if len(inv.Items) == 0 {
		v.Add("items", "at least one line item is required")
	}
	for i, it := range inv.Items {
		f := fmt.Sprintf("items[%d]", i)
		if it.Description == "" {
			v.Add(f+".description", "is required")
		}
		if !it.Quantity.IsPositive() {
			v.Add(f+".quantity", "must be greater than zero")
		}
		checkNonNegative(v, f+".unitPrice", it.UnitPrice)
	}
	if inv.IssueDate.IsZero() {
		v.Add("issueDate", "is required")
	}
	if inv.DueDate.IsZero() {
		v.Add("dueDate", "is required")
	} else if inv.DueDate.Before(inv.IssueDate) {
		v.Add("dueDate", "must not be before the issue date")
	}
	if inv.TaxRate.IsNegative() || inv.TaxRate.GreaterThan(hundred) {
		v.Add("taxRate", "must be between 0 and 100")
	}
	checkNonNegative(v, "discount", inv.Discount)
	if inv.Total.IsNegative() {
		v.Add("discount", "must not exceed subtotal plus tax")
	}
	if !inv.Status.Valid() {
		v.Add("status", "is not a known invoice status")
	}
	return v.Err()
}

// Editable reports whether line items and amounts may still change.
func (inv *Invoice) Editable() bool {
	return inv.Status == InvoiceDraft || inv.Status == InvoiceSent
}

func (inv *Invoice) Balance() decimal.Decimal {
	b := inv.Total.Sub(inv.AmountPaid)
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}

// ApplyPayment adds amount to the paid total and advances the status.
// It reports whether the invoice became fully paid.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal, at time.Time) (bool, error) {
	if !amount.IsPositive() {
		return false, NewValidationError("amount", "must be greater than zero")
	}
	switch inv.Status {
	case InvoiceCancelled, InvoicePaid:
		return false, fmt.Errorf("invoice %s is %s: %w", inv.InvoiceNumber, inv.Status, ErrInvalidState)
	case InvoiceDraft:
		return false, fmt.Errorf("invoice %s has not been sent: %w", inv.InvoiceNumber, ErrInvalidState)
	}
	if amount.GreaterThan(inv.Balance()) {
		return false, NewValidationError("amount", "exceeds the outstanding balance")
	}

	inv.AmountPaid = inv.AmountPaid.Add(amount)
	if inv.AmountPaid.GreaterThanOrEqual(inv.Total) {
		inv.Status = InvoicePaid
		t := at.UTC()
		inv.PaidAt = &t
		return true, nil
	}
	inv.Status = InvoicePartiallyPaid
	return false, nil
}

// EffectiveStatus derives overdue for unpaid invoices past their due date.
func (inv *Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if (inv.Status == InvoiceSent || inv.Status == InvoicePartiallyPaid) && dateOnly(inv.DueDate).Before(dateOnly(now)) {
		return InvoiceOverdue
	}
	return inv.Status
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOnly truncates t to midnight UTC.
func DateOnly(t time.Time) time.Time { return dateOnly(t) }
