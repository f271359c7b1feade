package services

import (
	"context"
	"fmt"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"

	"github.com/shopspring/decimal"
)

const invoiceNumberAttempts = 2

// InvoiceService issues invoices, tracks their payments and keeps the
// income ledger in step with them.
type InvoiceService struct {
	Repo      ports.InvoiceRepository
	Clients   ports.ClientRepository
	Shipments ports.ShipmentRepository
	Settings  *SettingsService
	Events    ports.EventPublisher
	Notifier  ports.Notifier
	Clock     Clock
}

// Payment is one amount received against an invoice.
type Payment struct {
	Amount        decimal.Decimal
	PaymentMethod string
	Reference     string
	ReceivedBy    string
}

func (s *InvoiceService) List(ctx context.Context, f domain.InvoiceFilter) (_ domain.Page[domain.Invoice], err error) {
	defer obs.Time(ctx, "invoices.List")(&err)

	f.ListParams = f.ListParams.Normalize()
	if f.Status != "" && !domain.InvoiceStatus(f.Status).Valid() {
		return domain.Page[domain.Invoice]{}, domain.NewValidationError("status", "is not a known invoice status")
	}
	f.Today = s.Clock.now()

	items, total, err := s.Repo.ListInvoices(ctx, f)
	if err != nil {
		return domain.Page[domain.Invoice]{}, fmt.Errorf("list invoices: %w", err)
	}
	for i := range items {
		items[i].Status = items[i].EffectiveStatus(f.Today)
	}
	return domain.NewPage(items, total, f.ListParams), nil
}

// Get returns the invoice with its effective status.
func (s *InvoiceService) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := s.Repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	inv.Status = inv.EffectiveStatus(s.Clock.now())
	return inv, nil
}

// ListForClient lists the invoices billed to clientID, drafts excluded.
func (s *InvoiceService) ListForClient(ctx context.Context, clientID string, f domain.InvoiceFilter) (domain.Page[domain.Invoice], error) {
	f.ClientID = clientID
	f.ExcludeDrafts = true
	return s.List(ctx, f)
}

// GetForClient is Get restricted to invoices billed to clientID. Drafts are
// not visible to clients.
func (s *InvoiceService) GetForClient(ctx context.Context, clientID, id string) (*domain.Invoice, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.ClientID != clientID || inv.Status == domain.InvoiceDraft {
		return nil, fmt.Errorf("get invoice %s: %w", id, domain.ErrNotFound)
	}
	return inv, nil
}

func (s *InvoiceService) prepare(ctx context.Context, inv *domain.Invoice, st domain.Settings) error {
	if inv.Currency == "" {
		inv.Currency = st.Currency
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = domain.DateOnly(s.Clock.now())
	}
	if inv.DueDate.IsZero() {
		inv.DueDate = inv.IssueDate.AddDate(0, 0, st.InvoiceDueDays)
	}
	inv.Normalize()
	inv.Recalculate()

	v := fieldErrors(inv.Validate())
	if inv.ClientID != "" {
		if _, err := s.Clients.GetClient(ctx, inv.ClientID); err != nil {
			if !isNotFound(err) {
				return fmt.Errorf("check client: %w", err)
			}
			v.Add("clientId", "does not exist")
		}
	}
	if inv.ShipmentID != nil {
		sh, err := s.Shipments.GetShipment(ctx, *inv.ShipmentID)
		switch {
		case isNotFound(err):
			v.Add("shipmentId", "does not exist")
		case err != nil:
			return fmt.Errorf("check shipment: %w", err)
		case sh.ClientID != inv.ClientID:
			v.Add("shipmentId", "belongs to another client")
		}
	}
	return v.Err()
}

// Create stores a new draft invoice numbered <prefix>-<year>-<sequence>.
func (s *InvoiceService) Create(ctx context.Context, inv *domain.Invoice) (err error) {
	defer obs.Time(ctx, "invoices.Create")(&err)

	st, err := s.Settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}

	inv.ID = ""
	inv.Status = domain.InvoiceDraft
	inv.AmountPaid = decimal.Zero
	inv.PaidAt = nil
	if err := s.prepare(ctx, inv, st); err != nil {
		return err
	}

	year := inv.IssueDate.Year()
	for attempt := 1; ; attempt++ {
		seq, err := s.Repo.NextInvoiceSequence(ctx, st.InvoicePrefix, year)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		inv.InvoiceNumber = domain.InvoiceNumber(st.InvoicePrefix, year, seq)

		err = s.Repo.CreateInvoice(ctx, inv)
		if err == nil {
			return nil
		}
		if !isConflict(err) || attempt == invoiceNumberAttempts {
			return fmt.Errorf("create invoice: %w", err)
		}
		inv.ID = ""
	}
}

// Update replaces the editable parts of a draft or sent invoice.
func (s *InvoiceService) Update(ctx context.Context, id string, inv *domain.Invoice) (err error) {
	defer obs.Time(ctx, "invoices.Update")(&err)

	existing, err := s.Repo.GetInvoice(ctx, id)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if !existing.Editable() {
		return fmt.Errorf("update invoice %s in status %s: %w", existing.InvoiceNumber, existing.Status, domain.ErrInvalidState)
	}
	st, err := s.Settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}

	inv.ID = id
	inv.InvoiceNumber = existing.InvoiceNumber
	inv.Status = existing.Status
	inv.AmountPaid = existing.AmountPaid
	inv.PaidAt = existing.PaidAt
	inv.CreatedAt = existing.CreatedAt
	if err := s.prepare(ctx, inv, st); err != nil {
		return err
	}
	if inv.Total.LessThan(inv.AmountPaid) {
		return domain.NewValidationError("items", "total must not be less than the amount already paid")
	}

	if err := s.Repo.UpdateInvoice(ctx, inv); err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// Send marks a draft invoice as sent and emails the client.
func (s *InvoiceService) Send(ctx context.Context, id string) (_ *domain.Invoice, err error) {
	defer obs.Time(ctx, "invoices.Send")(&err)

	inv, err := s.Repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("send invoice: %w", err)
	}
	if inv.Status != domain.InvoiceDraft {
		return nil, fmt.Errorf("send invoice %s in status %s: %w", inv.InvoiceNumber, inv.Status, domain.ErrInvalidState)
	}

	inv.Status = domain.InvoiceSent
	if err := s.Repo.UpdateInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("send invoice: %w", err)
	}

	client, err := s.Clients.GetClient(ctx, inv.ClientID)
	if err == nil {
		notify(ctx, s.Notifier, domain.Notification{
			Kind:    domain.NotifyInvoiceSent,
			To:      client.Email,
			Subject: "Invoice " + inv.InvoiceNumber,
			Body: fmt.Sprintf("Invoice %s for %s %s is due on %s.",
				inv.InvoiceNumber, inv.Total.StringFixed(2), inv.Currency, inv.DueDate.Format("2006-01-02")),
			Data: map[string]string{
				"invoiceId":     inv.ID,
				"invoiceNumber": inv.InvoiceNumber,
				"total":         inv.Total.StringFixed(2),
				"amountInWords": domain.AmountInWords(inv.Total, inv.Currency),
			},
		})
	}
	publish(ctx, s.Events, domain.Event{
		Type: domain.EventInvoiceSent,
		Key:  inv.ID,
		Data: map[string]any{"invoiceNumber": inv.InvoiceNumber, "clientId": inv.ClientID, "total": inv.Total.StringFixed(2)},
	})

	inv.Status = inv.EffectiveStatus(s.Clock.now())
	return inv, nil
}

// RecordPayment applies p to the invoice and books it as income.
func (s *InvoiceService) RecordPayment(ctx context.Context, id string, p Payment) (_ *domain.Invoice, err error) {
	defer obs.Time(ctx, "invoices.RecordPayment")(&err)

	inv, err := s.Repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	now := s.Clock.now()
	paid, err := inv.ApplyPayment(p.Amount, now)
	if err != nil {
		return nil, err
	}

	income := &domain.Transaction{
		Type:          domain.TransactionIncome,
		Category:      "invoice_payment",
		Amount:        p.Amount,
		Currency:      inv.Currency,
		Date:          domain.DateOnly(now),
		Description:   "Payment for invoice " + inv.InvoiceNumber,
		Reference:     p.Reference,
		PaymentMethod: p.PaymentMethod,
		ClientID:      &inv.ClientID,
		ShipmentID:    inv.ShipmentID,
		InvoiceID:     &inv.ID,
		CreatedBy:     p.ReceivedBy,
	}
	income.Normalize()
	if err := income.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repo.RecordPayment(ctx, inv, income); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	if paid {
		publish(ctx, s.Events, domain.Event{
			Type: domain.EventInvoicePaid,
			Key:  inv.ID,
			Data: map[string]any{"invoiceNumber": inv.InvoiceNumber, "clientId": inv.ClientID, "total": inv.Total.StringFixed(2)},
		})
	}

	inv.Status = inv.EffectiveStatus(now)
	return inv, nil
}

// Cancel voids an invoice that has not received any payment.
func (s *InvoiceService) Cancel(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := s.Repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cancel invoice: %w", err)
	}
	switch {
	case inv.Status == domain.InvoiceCancelled:
		return inv, nil
	case inv.Status == domain.InvoicePaid, inv.AmountPaid.IsPositive():
		return nil, fmt.Errorf("cancel invoice %s with payments: %w", inv.InvoiceNumber, domain.ErrInvalidState)
	}

	inv.Status = domain.InvoiceCancelled
	if err := s.Repo.UpdateInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("cancel invoice: %w", err)
	}
	return inv, nil
}

// Delete removes a draft or cancelled invoice.
func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	inv, err := s.Repo.GetInvoice(ctx, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if inv.Status != domain.InvoiceDraft && inv.Status != domain.InvoiceCancelled {
		return fmt.Errorf("delete invoice %s in status %s: %w", inv.InvoiceNumber, inv.Status, domain.ErrInvalidState)
	}
	if err := s.Repo.DeleteInvoice(ctx, id); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}

// Outstanding summarises unpaid invoices; an empty clientID covers all
// clients.
func (s *InvoiceService) Outstanding(ctx context.Context, clientID string) (ports.OutstandingSummary, error) {
	sum, err := s.Repo.OutstandingSummary(ctx, clientID, s.Clock.now())
	if err != nil {
		return ports.OutstandingSummary{}, fmt.Errorf("outstanding invoices: %w", err)
	}
	return sum, nil
}
