package ports

import (
	"context"
	"time"

	"cargo-logistics-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Port: persistence for client companies.
type ClientRepository interface {
	ListClients(ctx context.Context, f domain.ClientFilter) ([]domain.Client, int, error)
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	// Return the client with its shipment count and unpaid invoice balance.
	GetClientDetail(ctx context.Context, id string) (*domain.ClientDetail, error)
	CreateClient(ctx context.Context, c *domain.Client) error
	UpdateClient(ctx context.Context, c *domain.Client) error
	// Delete fails with domain.ErrConflict while shipments, invoices or
	// users reference the client.
	DeleteClient(ctx context.Context, id string) error
	CountClients(ctx context.Context, status domain.ClientStatus) (int, error)
}

// Port: persistence for suppliers.
type SupplierRepository interface {
	ListSuppliers(ctx context.Context, f domain.SupplierFilter) ([]domain.Supplier, int, error)
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)
	CreateSupplier(ctx context.Context, s *domain.Supplier) error
	UpdateSupplier(ctx context.Context, s *domain.Supplier) error
	DeleteSupplier(ctx context.Context, id string) error
}

// Port: persistence for the container fleet.
type ContainerRepository interface {
	ListContainers(ctx context.Context, f domain.ContainerFilter) ([]domain.Container, int, error)
	GetContainer(ctx context.Context, id string) (*domain.Container, error)
	CreateContainer(ctx context.Context, c *domain.Container) error
	UpdateContainer(ctx context.Context, c *domain.Container) error
	SetContainerStatus(ctx context.Context, id string, status domain.ContainerStatus) error
	// Delete fails with domain.ErrConflict while a shipment that is not
	// delivered or cancelled uses the container.
	DeleteContainer(ctx context.Context, id string) error
	CountContainersByStatus(ctx context.Context) (map[string]int, error)
}

// Port: persistence for shipments and their tracking history.
type ShipmentRepository interface {
	ListShipments(ctx context.Context, f domain.ShipmentFilter) ([]domain.Shipment, int, error)
	GetShipment(ctx context.Context, id string) (*domain.Shipment, error)
	GetShipmentByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error)
	CreateShipment(ctx context.Context, s *domain.Shipment) error
	UpdateShipment(ctx context.Context, s *domain.Shipment) error
	DeleteShipment(ctx context.Context, id string) error
	// Persist the shipment's new status together with the update that
	// caused it.
	RecordTrackingUpdate(ctx context.Context, s *domain.Shipment, u *domain.TrackingUpdate) error
	ListTrackingUpdates(ctx context.Context, shipmentID string) ([]domain.TrackingUpdate, error)
	RecentTrackingUpdates(ctx context.Context, limit int) ([]domain.TrackingUpdate, error)
	// Count shipments per status; clientID narrows to one client when set.
	CountShipmentsByStatus(ctx context.Context, clientID string) (map[string]int, error)
	RecentShipments(ctx context.Context, clientID string, limit int) ([]domain.Shipment, error)
}

// Port: persistence for invoices and their line items.
type InvoiceRepository interface {
	ListInvoices(ctx context.Context, f domain.InvoiceFilter) ([]domain.Invoice, int, error)
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)
	CreateInvoice(ctx context.Context, inv *domain.Invoice) error
	UpdateInvoice(ctx context.Context, inv *domain.Invoice) error
	DeleteInvoice(ctx context.Context, id string) error
	// Return the next sequence number for invoice numbers with prefix in year.
	NextInvoiceSequence(ctx context.Context, prefix string, year int) (int, error)
	// Persist a payment on inv and the income entry that books it.
	RecordPayment(ctx context.Context, inv *domain.Invoice, income *domain.Transaction) error
	// Sum unpaid balances; clientID narrows to one client when set.
	OutstandingSummary(ctx context.Context, clientID string, today time.Time) (OutstandingSummary, error)
}

// Unpaid invoice figures for dashboards.
type OutstandingSummary struct {
	Amount  decimal.Decimal
	Unpaid  int
	Overdue int
}

// Port: persistence for income and expense entries.
type TransactionRepository interface {
	ListTransactions(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, int, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	UpdateTransaction(ctx context.Context, t *domain.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	CategoryTotals(ctx context.Context, from, to time.Time) ([]domain.CategoryTotal, error)
	MonthTotals(ctx context.Context, from, to time.Time) ([]domain.MonthTotal, error)
}

// Port: persistence for staff and portal accounts.
type UserRepository interface {
	ListUsers(ctx context.Context, f domain.UserFilter) ([]domain.User, int, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	DeleteUser(ctx context.Context, id string) error
}

// Port: persistence for roles and their permission sets.
type RoleRepository interface {
	ListRoles(ctx context.Context) ([]domain.Role, error)
	GetRole(ctx context.Context, id string) (*domain.Role, error)
	GetRoleByName(ctx context.Context, name string) (*domain.Role, error)
	CreateRole(ctx context.Context, r *domain.Role) error
	UpdateRole(ctx context.Context, r *domain.Role) error
	// Delete fails with domain.ErrConflict while users hold the role.
	DeleteRole(ctx context.Context, id string) error
}

// Port: stored report results.
type ReportRepository interface {
	ListReports(ctx context.Context, p domain.ListParams) ([]domain.Report, int, error)
	GetReport(ctx context.Context, id string) (*domain.Report, error)
	CreateReport(ctx context.Context, r *domain.Report) error
	DeleteReport(ctx context.Context, id string) error
}

// Port: read-only aggregations behind report generation.
type ReportSource interface {
	ShipmentRows(ctx context.Context, p domain.ReportParameters) ([]domain.Shipment, error)
	InvoiceRows(ctx context.Context, p domain.ReportParameters) ([]domain.Invoice, error)
	ClientRows(ctx context.Context, p domain.ReportParameters) ([]domain.ClientActivity, error)
	ContainerRows(ctx context.Context, p domain.ReportParameters) ([]domain.ContainerUsage, error)
}

// Port: the company settings document.
type SettingsRepository interface {
	// Returns domain.ErrNotFound when settings were never saved.
	GetSettings(ctx context.Context) (*domain.Settings, error)
	SaveSettings(ctx context.Context, s *domain.Settings) error
}

// Port: support tickets and their conversation.
type TicketRepository interface {
	ListTickets(ctx context.Context, f domain.TicketFilter) ([]domain.SupportTicket, int, error)
	// Return the ticket with its messages in posting order.
	GetTicket(ctx context.Context, id string) (*domain.SupportTicket, error)
	// Create the ticket and its opening message.
	CreateTicket(ctx context.Context, t *domain.SupportTicket, first *domain.TicketMessage) error
	AddTicketMessage(ctx context.Context, m *domain.TicketMessage) error
	UpdateTicketStatus(ctx context.Context, id string, status domain.TicketStatus) error
	CountOpenTickets(ctx context.Context, clientID string) (int, error)
}
