package dto

import (
	"time"

	"cargo-logistics-service/internal/domain"

	"github.com/shopspring/decimal"
)

type InvoiceItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

type InvoiceRequest struct {
	ClientID   string          `json:"clientId"`
	ShipmentID *string         `json:"shipmentId"`
	IssueDate  *Date           `json:"issueDate"`
	DueDate    *Date           `json:"dueDate"`
	Currency   string          `json:"currency"`
	Items      []InvoiceItem   `json:"items"`
	TaxRate    decimal.Decimal `json:"taxRate"`
	Discount   decimal.Decimal `json:"discount"`
	Notes      string          `json:"notes"`
}

func (r InvoiceRequest) Domain() *domain.Invoice {
	inv := &domain.Invoice{
		ClientID:   r.ClientID,
		ShipmentID: r.ShipmentID,
		IssueDate:  r.IssueDate.Value(),
		DueDate:    r.DueDate.Value(),
		Currency:   r.Currency,
		Items:      make([]domain.InvoiceItem, 0, len(r.Items)),
		TaxRate:    r.TaxRate,
		Discount:   r.Discount,
		Notes:      r.Notes,
	}
	for _, it := range r.Items {
		inv.Items = append(inv.Items, domain.InvoiceItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return inv
}

type InvoiceResponse struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	ClientID      string          `json:"clientId"`
	ClientName    string          `json:"clientName,omitempty"`
	ShipmentID    *string         `json:"shipmentId"`
	IssueDate     Date            `json:"issueDate"`
	DueDate       Date            `json:"dueDate"`
	Currency      string          `json:"currency"`
	Items         []InvoiceItem   `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	Balance       decimal.Decimal `json:"balance"`
	AmountInWords string          `json:"amountInWords"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes"`
	PaidAt        *time.Time      `json:"paidAt"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func NewInvoice(inv domain.Invoice) InvoiceResponse {
	items := make([]InvoiceItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, InvoiceItem(it))
	}
	return InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		ClientID:      inv.ClientID,
		ClientName:    inv.ClientName,
		ShipmentID:    inv.ShipmentID,
		IssueDate:     Date{inv.IssueDate},
		DueDate:       Date{inv.DueDate},
		Currency:      inv.Currency,
		Items:         items,
		Subtotal:      inv.Subtotal,
		TaxRate:       inv.TaxRate,
		TaxAmount:     inv.TaxAmount,
		Discount:      inv.Discount,
		Total:         inv.Total,
		AmountPaid:    inv.AmountPaid,
		Balance:       inv.Balance(),
		AmountInWords: domain.AmountInWords(inv.Total, inv.Currency),
		Status:        string(inv.Status),
		Notes:         inv.Notes,
		PaidAt:        inv.PaidAt,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

type PaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	Reference     string          `json:"reference"`
}

type OutstandingResponse struct {
	Amount  decimal.Decimal `json:"amount"`
	Unpaid  int             `json:"unpaid"`
	Overdue int             `json:"overdue"`
}

type TransactionRequest struct {
	Type          string          `json:"type"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Date          *Date           `json:"date"`
	Description   string          `json:"description"`
	Reference     string          `json:"reference"`
	PaymentMethod string          `json:"paymentMethod"`
	ClientID      *string         `json:"clientId"`
	SupplierID    *string         `json:"supplierId"`
	ShipmentID    *string         `json:"shipmentId"`
}

func (r TransactionRequest) Domain() *domain.Transaction {
	return &domain.Transaction{
		Type:          domain.TransactionType(r.Type),
		Category:      r.Category,
		Amount:        r.Amount,
		Currency:      r.Currency,
		Date:          r.Date.Value(),
		Description:   r.Description,
		Reference:     r.Reference,
		PaymentMethod: r.PaymentMethod,
		ClientID:      r.ClientID,
		SupplierID:    r.SupplierID,
		ShipmentID:    r.ShipmentID,
	}
}

type TransactionResponse struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Date          Date            `json:"date"`
	Description   string          `json:"description"`
	Reference     string          `json:"reference"`
	PaymentMethod string          `json:"paymentMethod"`
	ClientID      *string         `json:"clientId"`
	SupplierID    *string         `json:"supplierId"`
	ShipmentID    *string         `json:"shipmentId"`
	InvoiceID     *string         `json:"invoiceId"`
	CreatedBy     string          `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func NewTransaction(t domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Type:          string(t.Type),
		Category:      t.Category,
		Amount:        t.Amount,
		Currency:      t.Currency,
		Date:          Date{t.Date},
		Description:   t.Description,
		Reference:     t.Reference,
		PaymentMethod: t.PaymentMethod,
		ClientID:      t.ClientID,
		SupplierID:    t.SupplierID,
		ShipmentID:    t.ShipmentID,
		InvoiceID:     t.InvoiceID,
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

type CategoryTotal struct {
	Type     string          `json:"type"`
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

type MonthTotal struct {
	Month string          `json:"month"`
	Type  string          `json:"type"`
	Total decimal.Decimal `json:"total"`
}

type FinancialSummaryResponse struct {
	From         Date            `json:"from"`
	To           Date            `json:"to"`
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	NetProfit    decimal.Decimal `json:"netProfit"`
	ByCategory   []CategoryTotal `json:"byCategory"`
	ByMonth      []MonthTotal    `json:"byMonth"`
}

func NewFinancialSummary(s domain.FinancialSummary) FinancialSummaryResponse {
	return FinancialSummaryResponse{
		From:         Date{s.From},
		To:           Date{s.To},
		TotalIncome:  s.TotalIncome,
		TotalExpense: s.TotalExpense,
		NetProfit:    s.NetProfit,
		ByCategory: Map(s.ByCategory, func(c domain.CategoryTotal) CategoryTotal {
			return CategoryTotal{Type: string(c.Type), Category: c.Category, Total: c.Total}
		}),
		ByMonth: Map(s.ByMonth, func(m domain.MonthTotal) MonthTotal {
			return MonthTotal{Month: m.Month, Type: string(m.Type), Total: m.Total}
		}),
	}
}
