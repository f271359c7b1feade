package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type NotificationSettings struct {
	Email            bool `json:"email"`
	ShipmentUpdates  bool `json:"shipmentUpdates"`
	InvoiceReminders bool `json:"invoiceReminders"`
}

// Settings is the single company-wide settings document.
type Settings struct {
	CompanyName    string               `json:"companyName"`
	CompanyEmail   string               `json:"companyEmail"`
	CompanyPhone   string               `json:"companyPhone"`
	CompanyAddress string               `json:"companyAddress"`
	Currency       string               `json:"currency"`
	DefaultTaxRate decimal.Decimal      `json:"defaultTaxRate"`
	Timezone       string               `json:"timezone"`
	InvoicePrefix  string               `json:"invoicePrefix"`
	InvoiceDueDays int                  `json:"invoiceDueDays"`
	Notifications  NotificationSettings `json:"notifications"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

func DefaultSettings() Settings {
	return Settings{
		CompanyName:    "Cargo Logistics",
		Currency:       "USD",
		DefaultTaxRate: decimal.Zero,
		Timezone:       "UTC",
		InvoicePrefix:  "INV",
		InvoiceDueDays: 30,
		Notifications:  NotificationSettings{Email: true, ShipmentUpdates: true, InvoiceReminders: true},
	}
}

func (s *Settings) Normalize() {
	s.CompanyName = strings.TrimSpace(s.CompanyName)
	s.CompanyEmail = normalizeEmail(s.CompanyEmail)
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	s.InvoicePrefix = strings.ToUpper(strings.TrimSpace(s.InvoicePrefix))
	if s.Timezone == "" {
		s.Timezone = "UTC"
	}
}

func (s *Settings) Validate() error {
	v := &ValidationError{}
	requireText(v, "companyName", s.CompanyName)
	checkEmail(v, "companyEmail", s.CompanyEmail, false)
	checkPhone(v, "companyPhone", s.CompanyPhone)
	if !IsCurrency(s.Currency) {
		v.Add("currency", "must be a 3 letter ISO code")
	}
	if s.DefaultTaxRate.IsNegative() || s.DefaultTaxRate.GreaterThan(hundred) {
		v.Add("defaultTaxRate", "must be between 0 and 100")
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		v.Add("timezone", "is not a known time zone")
	}
	requireText(v, "invoicePrefix", s.InvoicePrefix)
	if s.InvoiceDueDays < 0 || s.InvoiceDueDays > 365 {
		v.Add("invoiceDueDays", "must be between 0 and 365")
	}
	return v.Err()
}
