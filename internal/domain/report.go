package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ReportType string

const (
	ReportShipments  ReportType = "shipments"
	ReportFinancial  ReportType = "financial"
	ReportClients    ReportType = "clients"
	ReportContainers ReportType = "containers"
	ReportInvoices   ReportType = "invoices"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportShipments, ReportFinancial, ReportClients, ReportContainers, ReportInvoices:
		return true
	}
	return false
}

type ReportFormat string

const (
	ReportJSON ReportFormat = "json"
	ReportXLSX ReportFormat = "xlsx"
)

func (f ReportFormat) Valid() bool { return f == ReportJSON || f == ReportXLSX }

type ReportParameters struct {
	DateFrom time.Time `json:"dateFrom"`
	DateTo   time.Time `json:"dateTo"`
	ClientID string    `json:"clientId,omitempty"`
	Status   string    `json:"status,omitempty"`
}

// ReportTable is a rendered report: one header row and data rows, plus
// headline figures.
type ReportTable struct {
	Title   string            `json:"title"`
	Columns []string          `json:"columns"`
	Rows    [][]string        `json:"rows"`
	Totals  map[string]string `json:"totals"`
}

type Report struct {
	ID          string
	Name        string
	Type        ReportType
	Format      ReportFormat
	Parameters  ReportParameters
	Result      ReportTable
	GeneratedBy string
	CreatedAt   time.Time
}

func (r *Report) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	if r.Format == "" {
		r.Format = ReportJSON
	}
	if r.Name == "" && r.Type.Valid() {
		r.Name = strings.ToUpper(string(r.Type[:1])) + string(r.Type[1:]) + " report " +
			r.Parameters.DateFrom.Format("2006-01-02") + " to " + r.Parameters.DateTo.Format("2006-01-02")
	}
}

func (r *Report) Validate() error {
	v := &ValidationError{}
	if !r.Type.Valid() {
		v.Add("type", "is not a known report type")
	}
	if !r.Format.Valid() {
		v.Add("format", "must be json or xlsx")
	}
	if r.Parameters.DateFrom.IsZero() {
		v.Add("dateFrom", "is required")
	}
	if r.Parameters.DateTo.IsZero() {
		v.Add("dateTo", "is required")
	} else if r.Parameters.DateTo.Before(r.Parameters.DateFrom) {
		v.Add("dateTo", "must not be before dateFrom")
	}
	return v.Err()
}

// ClientActivity is one row of the clients report.
type ClientActivity struct {
	Client    Client
	Shipments int
	Invoiced  decimal.Decimal
	Paid      decimal.Decimal
}

// ContainerUsage is one row of the containers report.
type ContainerUsage struct {
	Container Container
	Shipments int
}
