package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cargo-logistics-service/internal/adapters/cache"
	"cargo-logistics-service/internal/adapters/events"
	"cargo-logistics-service/internal/adapters/export"
	"cargo-logistics-service/internal/adapters/notify"
	"cargo-logistics-service/internal/adapters/repositories"
	"cargo-logistics-service/internal/auth"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/db"
	"cargo-logistics-service/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const password = "correct-horse"

type testServer struct {
	svc Services
	srv *httptest.Server
}

func newTestServer(t *testing.T, opt Options) *testServer {
	t.Helper()
	conn, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, repositories.InitSchema(context.Background(), conn))

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
	memCache := cache.NewMemoryCache()
	notifier := notify.LogNotifier{}

	var svc Services
	svc.Settings = &services.SettingsService{Repo: repositories.NewSQLSettingsRepository(conn)}
	svc.Clients = &services.ClientService{Repo: clientRepo}
	svc.Suppliers = &services.SupplierService{Repo: supplierRepo}
	svc.Containers = &services.ContainerService{Repo: containerRepo, Suppliers: supplierRepo}
	svc.Shipments = &services.ShipmentService{
		Repo: shipmentRepo, Clients: clientRepo, Containers: containerRepo, Suppliers: supplierRepo,
		Events: events.NoopPublisher{}, Prefix: "CTC",
	}
	svc.Invoices = &services.InvoiceService{
		Repo: invoiceRepo, Clients: clientRepo, Shipments: shipmentRepo, Settings: svc.Settings,
		Events: events.NoopPublisher{}, Notifier: notifier,
	}
	svc.Finance = &services.FinanceService{Repo: txRepo, Settings: svc.Settings}
	svc.Auth = &services.AuthService{
		Users: userRepo, Roles: roleRepo, Clients: clientRepo,
		Hasher: auth.BcryptHasher{Cost: bcrypt.MinCost},
		Tokens: auth.NewJWTIssuer("router-test-secret-123", time.Hour),
		Cache:  memCache, Notifier: notifier,
	}
	svc.Team = &services.TeamService{Users: userRepo, Roles: roleRepo, Clients: clientRepo, Hasher: svc.Auth.Hasher, Auth: svc.Auth}
	svc.Reports = &services.ReportService{Repo: reportRepo, Source: reportRepo, Finance: svc.Finance, Exporter: export.XLSXExporter{}}
	svc.Dashboard = &services.DashboardService{
		Shipments: shipmentRepo, Clients: clientRepo, Containers: containerRepo, Invoices: invoiceRepo,
		Transactions: txRepo, Tickets: ticketRepo, Cache: memCache,
	}
	svc.Support = &services.SupportService{
		Repo: ticketRepo, Users: userRepo, Shipments: shipmentRepo, Settings: svc.Settings,
		Notifier: notifier, Prefix: "CTC",
	}
	svc.Contact = &services.ContactService{Settings: svc.Settings, Notifier: notifier}

	srv := httptest.NewServer(NewRouter(svc, opt))
	t.Cleanup(srv.Close)
	return &testServer{svc: svc, srv: srv}
}

func (s *testServer) staff(t *testing.T, email, roleName string) string {
	t.Helper()
	ctx := context.Background()
	role, err := s.svc.Auth.Roles.GetRoleByName(ctx, roleName)
	require.NoError(t, err)
	u := &domain.User{FirstName: "Ana", LastName: "Fernando", Email: email, RoleID: role.ID, UserType: domain.UserTypeAdmin}
	require.NoError(t, s.svc.Team.CreateUser(ctx, u, password))
	return s.login(t, email)
}

func (s *testServer) portal(t *testing.T, clientID, email string) string {
	t.Helper()
	ctx := context.Background()
	role, err := s.svc.Auth.Roles.GetRoleByName(ctx, domain.RoleClient)
	require.NoError(t, err)
	u := &domain.User{
		FirstName: "Kim", LastName: "Silva", Email: email, RoleID: role.ID,
		UserType: domain.UserTypeClient, ClientID: &clientID,
	}
	require.NoError(t, s.svc.Team.CreateUser(ctx, u, password))
	return s.login(t, email)
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	res := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	res.decode(t, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

type response struct {
	Code   int
	Header http.Header
	Body   *bytes.Buffer
}

func (r response) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body.Bytes(), v), r.Body.String())
}

func (r response) errorBody(t *testing.T) (string, map[string]string) {
	t.Helper()
	var e struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	r.decode(t, &e)
	return e.Error, e.Fields
}

// do sends body as JSON unless it is already a string.
func (s *testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req, err := http.NewRequest(method, s.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	out := response{Code: res.StatusCode, Header: res.Header, Body: &bytes.Buffer{}}
	_, err = out.Body.ReadFrom(res.Body)
	require.NoError(t, err)
	return out
}

func (s *testServer) createClient(t *testing.T, token, name, email string) string {
	t.Helper()
	res := s.do(t, http.MethodPost, "/clients", token, map[string]string{"name": name, "email": email, "country": "Sri Lanka"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var c struct {
		ID string `json:"id"`
	}
	res.decode(t, &c)
	return c.ID
}

type shipmentBody struct {
	ID             string `json:"id"`
	TrackingNumber string `json:"trackingNumber"`
	Status         string `json:"status"`
}

func (s *testServer) createShipment(t *testing.T, token, clientID string) shipmentBody {
	t.Helper()
	res := s.do(t, http.MethodPost, "/shipments", token, map[string]any{
		"clientId":    clientID,
		"origin":      "Colombo",
		"destination": "Rotterdam",
		"weightKg":    "1200.5",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var sh shipmentBody
	res.decode(t, &sh)
	return sh
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{})
	res := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))

	down := newTestServer(t, Options{Ping: func(context.Context) error { return errors.New("connection refused") }})
	res = down.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
}

func TestLoginMeLogout(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.staff(t, "ana@cargo.example", domain.RoleAdmin)

	res := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@cargo.example", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	unknown := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "nobody@cargo.example", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, res.Body.String(), unknown.Body.String(), "no account enumeration")

	res = s.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var me struct {
		User struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
		Permissions []string `json:"permissions"`
	}
	res.decode(t, &me)
	assert.Equal(t, "ana@cargo.example", me.User.Email)
	assert.Equal(t, domain.RoleAdmin, me.User.Role)
	assert.Contains(t, me.Permissions, domain.PermTeamManage)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/auth/logout", token, nil).Code)
	res = s.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/auth/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/auth/me", "not-a-jwt", nil).Code)
}

func TestPermissionGating(t *testing.T) {
	s := newTestServer(t, Options{})
	operator := s.staff(t, "op@cargo.example", domain.RoleOperator)
	accountant := s.staff(t, "books@cargo.example", domain.RoleAccountant)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/clients", operator, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/clients", operator, map[string]string{"name": "X"}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/invoices", operator, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/team/users", operator, nil).Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/invoices", accountant, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/expenses", accountant, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, "/settings", accountant, map[string]any{}).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/settings", accountant, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/dashboard/stats", accountant, nil).Code)
}

func TestStrictBodiesAndValidation(t *testing.T) {
	s := newTestServer(t, Options{})
	admin := s.staff(t, "ana@cargo.example", domain.RoleAdmin)

	res := s.do(t, http.MethodPost, "/clients", admin, map[string]any{})
	require.Equal(t, http.StatusBadRequest, res.Code)
	msg, fields := res.errorBody(t)
	assert.Equal(t, "validation failed", msg)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")

	res = s.do(t, http.MethodPost, "/clients", admin, `{"name":"Acme","email":"ops@acme.example","colour":"red"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	msg, _ = res.errorBody(t)
	assert.Equal(t, "invalid json body", msg)

	res = s.do(t, http.MethodPost, "/clients", admin, `{"name":"Acme","email":"ops@acme.example"}{}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = s.do(t, http.MethodGet, "/clients/does-not-exist", admin, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = s.do(t, http.MethodGet, "/shipments?page=abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestListPaginationShape(t *testing.T) {
	s := newTestServer(t, Options{})
	admin := s.staff(t, "ana@cargo.example", domain.RoleAdmin)
	s.createClient(t, admin, "Acme Freight", "ops@acme.example")
	s.createClient(t, admin, "Blue Harbor", "hello@blueharbor.example")

	res := s.do(t, http.MethodGet, "/clients?limit=500&search=acme", admin, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var page struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
		Pagination struct {
			Page       int `json:"page"`
			Limit      int `json:"limit"`
			Total      int `json:"total"`
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	}
	res.decode(t, &page)
	assert.Equal(t, domain.MaxPageSize, page.Pagination.Limit)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, 1, page.Pagination.Total)
	assert.Equal(t, 1, page.Pagination.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Acme Freight", page.Data[0].Name)
}

func TestShipmentStatusAndPublicTracking(t *testing.T) {
	s := newTestServer(t, Options{})
	admin := s.staff(t, "ana@cargo.example", domain.RoleAdmin)
	clientID := s.createClient(t, admin, "Acme Freight", "ops@acme.example")
	sh := s.createShipment(t, admin, clientID)
	assert.True(t, strings.HasPrefix(sh.TrackingNumber, "CTC"), sh.TrackingNumber)
	assert.Equal(t, "pending", sh.Status)

	res := s.do(t, http.MethodPatch, "/shipments/"+sh.ID+"/status", admin, map[string]string{
		"status": "in_transit", "location": "Port of Colombo", "description": "Departed",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res = s.do(t, http.MethodGet, "/tracking/"+sh.TrackingNumber, "", nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var tracked struct {
		Status  string `json:"status"`
		Updates []struct {
			Status   string `json:"status"`
			Location string `json:"location"`
		} `json:"updates"`
	}
	res.decode(t, &tracked)
	assert.Equal(t, "in_transit", tracked.Status)
	require.Len(t, tracked.Updates, 1)
	assert.Equal(t, "Port of Colombo", tracked.Updates[0].Location)
	assert.NotContains(t, res.Body.String(), clientID, "public tracking hides the client")

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/tracking/CTC-NOPE", "", nil).Code)

	res = s.do(t, http.MethodDelete, "/shipments/"+sh.ID, admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
}

func TestPortalIsScopedToOwnClient(t *testing.T) {
	s := newTestServer(t, Options{})
	admin := s.staff(t, "ana@cargo.example", domain.RoleAdmin)
	mine := s.createClient(t, admin, "Acme Freight", "ops@acme.example")
	theirs := s.createClient(t, admin, "Blue Harbor", "hello@blueharbor.example")
	own := s.createShipment(t, admin, mine)
	foreign := s.createShipment(t, admin, theirs)

	customer := s.portal(t, mine, "kim@acme.example")

	res := s.do(t, http.MethodGet, "/portal/shipments", customer, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var page struct {
		Data []shipmentBody `json:"data"`
	}
	res.decode(t, &page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, own.ID, page.Data[0].ID)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/portal/shipments/"+own.ID, customer, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/portal/shipments/"+foreign.ID, customer, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/portal/dashboard", customer, nil).Code)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/clients", customer, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/portal/shipments", admin, nil).Code)
}

func TestSupportTicketConversation(t *testing.T) {
	s := newTestServer(t, Options{})
	admin := s.staff(t, "ana@cargo.example", domain.RoleAdmin)
	clientID := s.createClient(t, admin, "Acme Freight", "ops@acme.example")
	customer := s.portal(t, clientID, "kim@acme.example")

	res := s.do(t, http.MethodPost, "/portal/tickets", customer, map[string]any{
		"subject": "Where is my cargo?", "category": "shipment", "priority": "high", "message": "It is late.",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var ticket struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Messages []struct {
			Body string `json:"body"`
		} `json:"messages"`
	}
	res.decode(t, &ticket)
	assert.Equal(t, "open", ticket.Status)
	require.Len(t, ticket.Messages, 1)

	res = s.do(t, http.MethodPost, "/support/tickets/"+ticket.ID+"/messages", admin, map[string]string{"message": "Checking now."})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	res = s.do(t, http.MethodGet, "/portal/tickets/"+ticket.ID, customer, nil)
	require.Equal(t, http.StatusOK, res.Code)
	res.decode(t, &ticket)
	assert.Equal(t, "in_progress", ticket.Status)
	assert.Len(t, ticket.Messages, 2)

	res = s.do(t, http.MethodPatch, "/support/tickets/"+ticket.ID+"/status", admin, map[string]string{"status": "closed"})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	res = s.do(t, http.MethodPost, "/portal/tickets/"+ticket.ID+"/messages", customer, map[string]string{"message": "Thanks"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
}

func TestReportDownload(t *testing.T) {
	s := newTestServer(t, Options{})
	admin := s.staff(t, "ana@cargo.example", domain.RoleAdmin)
	clientID := s.createClient(t, admin, "Acme Freight", "ops@acme.example")
	s.createShipment(t, admin, clientID)

	today := time.Now().UTC().Format("2006-01-02")
	res := s.do(t, http.MethodPost, "/reports", admin, map[string]string{
		"type": "shipments", "format": "xlsx", "dateFrom": today, "dateTo": today,
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var rep struct {
		ID string `json:"id"`
	}
	res.decode(t, &rep)

	res = s.do(t, http.MethodGet, "/reports/"+rep.ID+"/download", admin, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, export.XLSXExporter{}.ContentType(), res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "shipments-report-")
	assert.Equal(t, "PK", res.Body.String()[:2], "xlsx is a zip archive")
}

func TestRateLimitedPublicEndpoints(t *testing.T) {
	s := newTestServer(t, Options{RateLimit: 0.001, RateBurst: 1})

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/tracking/CTC-NOPE", "", nil).Code)
	res := s.do(t, http.MethodGet, "/tracking/CTC-NOPE", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Equal(t, "1", res.Header.Get("Retry-After"))

	// Routes outside the limited set are unaffected.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", "", nil).Code)
}

func TestIPLimiterBucketsPerAddress(t *testing.T) {
	l := newIPLimiter(1, 1)
	now := time.Now()
	assert.True(t, l.allow("10.0.0.1", now))
	assert.False(t, l.allow("10.0.0.1", now))
	assert.True(t, l.allow("10.0.0.2", now))
	assert.True(t, l.allow("10.0.0.1", now.Add(time.Second)))

	l.allow("10.0.0.3", now.Add(time.Hour))
	assert.Len(t, l.buckets, 1, "idle buckets are swept")
}
