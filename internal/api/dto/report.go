package dto

import (
	"time"

	"cargo-logistics-service/internal/domain"

	"github.com/shopspring/decimal"
)

type ReportRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Format   string `json:"format"`
	DateFrom *Date  `json:"dateFrom"`
	DateTo   *Date  `json:"dateTo"`
	ClientID string `json:"clientId"`
	Status   string `json:"status"`
}

func (r ReportRequest) Domain() *domain.Report {
	return &domain.Report{
		Name:   r.Name,
		Type:   domain.ReportType(r.Type),
		Format: domain.ReportFormat(r.Format),
		Parameters: domain.ReportParameters{
			DateFrom: r.DateFrom.Value(),
			DateTo:   r.DateTo.Value(),
			ClientID: r.ClientID,
			Status:   r.Status,
		},
	}
}

type ReportResponse struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Type        string                  `json:"type"`
	Format      string                  `json:"format"`
	Parameters  domain.ReportParameters `json:"parameters"`
	Result      *domain.ReportTable     `json:"result,omitempty"`
	GeneratedBy string                  `json:"generatedBy"`
	CreatedAt   time.Time               `json:"createdAt"`
}

// NewReport includes the result table only when withResult is set; list
// views leave it out.
func NewReport(r domain.Report, withResult bool) ReportResponse {
	res := ReportResponse{
		ID:          r.ID,
		Name:        r.Name,
		Type:        string(r.Type),
		Format:      string(r.Format),
		Parameters:  r.Parameters,
		GeneratedBy: r.GeneratedBy,
		CreatedAt:   r.CreatedAt,
	}
	if withResult {
		table := r.Result
		res.Result = &table
	}
	return res
}

type SettingsRequest struct {
	CompanyName    string                      `json:"companyName"`
	CompanyEmail   string                      `json:"companyEmail"`
	CompanyPhone   string                      `json:"companyPhone"`
	CompanyAddress string                      `json:"companyAddress"`
	Currency       string                      `json:"currency"`
	DefaultTaxRate decimal.Decimal             `json:"defaultTaxRate"`
	Timezone       string                      `json:"timezone"`
	InvoicePrefix  string                      `json:"invoicePrefix"`
	InvoiceDueDays int                         `json:"invoiceDueDays"`
	Notifications  domain.NotificationSettings `json:"notifications"`
}

func (r SettingsRequest) Domain() *domain.Settings {
	return &domain.Settings{
		CompanyName:    r.CompanyName,
		CompanyEmail:   r.CompanyEmail,
		CompanyPhone:   r.CompanyPhone,
		CompanyAddress: r.CompanyAddress,
		Currency:       r.Currency,
		DefaultTaxRate: r.DefaultTaxRate,
		Timezone:       r.Timezone,
		InvoicePrefix:  r.InvoicePrefix,
		InvoiceDueDays: r.InvoiceDueDays,
		Notifications:  r.Notifications,
	}
}

type CompanyResponse struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func NewReportSummary(r domain.Report) ReportResponse { return NewReport(r, false) }
