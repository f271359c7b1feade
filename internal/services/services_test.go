package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"cargo-logistics-service/internal/adapters/cache"
	"cargo-logistics-service/internal/adapters/export"
	"cargo-logistics-service/internal/adapters/geocode"
	"cargo-logistics-service/internal/adapters/repositories"
	"cargo-logistics-service/internal/auth"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/db"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, m domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, m)
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) last() domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return domain.Notification{}
	}
	return n.sent[len(n.sent)-1]
}

type recordingBroadcaster struct {
	mu      sync.Mutex
	updates map[string][]domain.TrackingUpdate
}

func (b *recordingBroadcaster) Broadcast(tn string, u domain.TrackingUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.updates == nil {
		b.updates = map[string][]domain.TrackingUpdate{}
	}
	b.updates[tn] = append(b.updates[tn], u)
}

// env wires every service over one in-memory database.
type env struct {
	now      time.Time
	events   *recordingPublisher
	notifier *recordingNotifier
	bcast    *recordingBroadcaster
	cache    *cache.MemoryCache

	settings   *SettingsService
	clients    *ClientService
	suppliers  *SupplierService
	containers *ContainerService
	shipments  *ShipmentService
	invoices   *InvoiceService
	finance    *FinanceService
	auth       *AuthService
	team       *TeamService
	reports    *ReportService
	dashboard  *DashboardService
	support    *SupportService
	contact    *ContactService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	conn, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, repositories.InitSchema(context.Background(), conn))

	e := &env{
		now:      time.Now().UTC(),
		events:   &recordingPublisher{},
		notifier: &recordingNotifier{},
		bcast:    &recordingBroadcaster{},
		cache:    cache.NewMemoryCache(),
	}
	clock := Clock(func() time.Time { return e.now })

	clientRepo := repositories.NewSQLClientRepository(conn)
	supplierRepo := repositories.NewSQLSupplierRepository(conn)
	containerRepo := repositories.NewSQLContainerRepository(conn)
	shipmentRepo := repositories.NewSQLShipmentRepository(conn)
	invoiceRepo := repositories.NewSQLInvoiceRepository(conn)
	txRepo := repositories.NewSQLTransactionRepository(conn)
	userRepo := repositories.NewSQLUserRepository(conn)
	roleRepo := repositories.NewSQLRoleRepository(conn)
	reportRepo := repositories.NewSQLReportRepository(conn)
	ticketRepo := repositories.NewSQLTicketRepository(conn)

	e.settings = &SettingsService{Repo: repositories.NewSQLSettingsRepository(conn)}
	e.clients = &ClientService{Repo: clientRepo}
	e.suppliers = &SupplierService{Repo: supplierRepo}
	e.containers = &ContainerService{Repo: containerRepo, Suppliers: supplierRepo}
	e.shipments = &ShipmentService{
		Repo: shipmentRepo, Clients: clientRepo, Containers: containerRepo, Suppliers: supplierRepo,
		Events: e.events, Broadcaster: e.bcast,
		Geocoder: geocode.NewStaticGeocoder(map[string]domain.Coordinates{"Port of Colombo": {Lon: 79.85, Lat: 6.95}}),
		Prefix:   "CTC", Clock: clock,
	}
	e.invoices = &InvoiceService{
		Repo: invoiceRepo, Clients: clientRepo, Shipments: shipmentRepo, Settings: e.settings,
		Events: e.events, Notifier: e.notifier, Clock: clock,
	}
	e.finance = &FinanceService{Repo: txRepo, Settings: e.settings, Clock: clock}
	e.auth = &AuthService{
		Users: userRepo, Roles: roleRepo, Clients: clientRepo,
		Hasher: auth.BcryptHasher{Cost: bcrypt.MinCost},
		Tokens: auth.NewJWTIssuer("test-secret-at-least-16", time.Hour),
		Cache:  e.cache, Notifier: e.notifier, Clock: clock,
	}
	e.team = &TeamService{Users: userRepo, Roles: roleRepo, Clients: clientRepo, Hasher: e.auth.Hasher, Auth: e.auth}
	e.reports = &ReportService{Repo: reportRepo, Source: reportRepo, Finance: e.finance, Exporter: export.XLSXExporter{}}
	e.dashboard = &DashboardService{
		Shipments: shipmentRepo, Clients: clientRepo, Containers: containerRepo, Invoices: invoiceRepo,
		Transactions: txRepo, Tickets: ticketRepo, Cache: e.cache, Clock: clock,
	}
	e.support = &SupportService{
		Repo: ticketRepo, Users: userRepo, Shipments: shipmentRepo, Settings: e.settings,
		Notifier: e.notifier, Prefix: "CTC",
	}
	e.contact = &ContactService{Settings: e.settings, Notifier: e.notifier}
	return e
}

func (e *env) client(t *testing.T, name, email string) *domain.Client {
	t.Helper()
	c := &domain.Client{Name: name, Email: email, Country: "Sri Lanka"}
	require.NoError(t, e.clients.Create(context.Background(), c))
	return c
}

func (e *env) container(t *testing.T, number string) *domain.Container {
	t.Helper()
	c := &domain.Container{ContainerNumber: number, Type: domain.Container40ft, Location: "Colombo"}
	require.NoError(t, e.containers.Create(context.Background(), c))
	return c
}

func (e *env) shipment(t *testing.T, clientID string, containerID *string) *domain.Shipment {
	t.Helper()
	sh := &domain.Shipment{
		ClientID:    clientID,
		ContainerID: containerID,
		Origin:      "Colombo",
		Destination: "Rotterdam",
		WeightKg:    decimal.RequireFromString("1200.5"),
	}
	require.NoError(t, e.shipments.Create(context.Background(), sh))
	return sh
}

func (e *env) staff(t *testing.T, email, roleName string) *domain.User {
	t.Helper()
	ctx := context.Background()
	role, err := e.auth.Roles.GetRoleByName(ctx, roleName)
	require.NoError(t, err)
	u := &domain.User{FirstName: "Sam", LastName: "Perera", Email: email, RoleID: role.ID, UserType: domain.UserTypeAdmin}
	require.NoError(t, e.team.CreateUser(ctx, u, "correct-horse"))
	return u
}

func (e *env) portalUser(t *testing.T, clientID, email string) *domain.User {
	t.Helper()
	ctx := context.Background()
	role, err := e.auth.Roles.GetRoleByName(ctx, domain.RoleClient)
	require.NoError(t, err)
	u := &domain.User{
		FirstName: "Kim", LastName: "Silva", Email: email, RoleID: role.ID,
		UserType: domain.UserTypeClient, ClientID: &clientID,
	}
	require.NoError(t, e.team.CreateUser(ctx, u, "correct-horse"))
	return u
}

func (e *env) principal(t *testing.T, u *domain.User) *domain.Principal {
	t.Helper()
	p, err := e.auth.principal(context.Background(), u.ID)
	require.NoError(t, err)
	return p
}

func item(desc, qty, price string) domain.InvoiceItem {
	return domain.InvoiceItem{
		Description: desc,
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
	}
}
