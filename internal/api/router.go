package api

import (
	"context"
	"net/http"

	"cargo-logistics-service/internal/api/handlers"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/services"

	"github.com/rs/cors"
)

// Services are the application services the HTTP layer is built on.
type Services struct {
	Auth       *services.AuthService
	Clients    *services.ClientService
	Suppliers  *services.SupplierService
	Containers *services.ContainerService
	Shipments  *services.ShipmentService
	Invoices   *services.InvoiceService
	Finance    *services.FinanceService
	Team       *services.TeamService
	Reports    *services.ReportService
	Settings   *services.SettingsService
	Dashboard  *services.DashboardService
	Support    *services.SupportService
	Contact    *services.ContactService
}

// Options tune the transport. Zero values disable rate limiting and allow
// any origin.
type Options struct {
	CORSOrigins []string
	RateLimit   float64
	RateBurst   int
	Hub         handlers.Subscriber
	Ping        func(ctx context.Context) error
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(svc Services, opt Options) http.Handler {
	mux := http.NewServeMux()
	g := guard{auth: svc.Auth}

	var limit *ipLimiter
	if opt.RateLimit > 0 {
		burst := opt.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limit = newIPLimiter(opt.RateLimit, burst)
	}

	health := &handlers.HealthHandler{Ping: opt.Ping}
	mux.HandleFunc("GET /health", health.Health)

	authH := &handlers.AuthHandler{Auth: svc.Auth}
	mux.HandleFunc("POST /auth/login", limit.wrap(authH.Login))
	mux.HandleFunc("POST /auth/register", limit.wrap(authH.Register))
	mux.HandleFunc("POST /auth/forgot-password", limit.wrap(authH.ForgotPassword))
	mux.HandleFunc("POST /auth/verify-otp", limit.wrap(authH.VerifyOTP))
	mux.HandleFunc("POST /auth/reset-password", limit.wrap(authH.ResetPassword))
	mux.HandleFunc("GET /auth/me", g.authed(authH.Me))
	mux.HandleFunc("POST /auth/logout", g.authed(authH.Logout))
	mux.HandleFunc("PUT /auth/change-password", g.authed(authH.ChangePassword))
	mux.HandleFunc("PUT /auth/profile", g.authed(authH.UpdateProfile))

	clients := &handlers.ClientHandler{Clients: svc.Clients}
	mux.HandleFunc("GET /clients", g.perm(domain.PermClientsRead, clients.List))
	mux.HandleFunc("GET /clients/{id}", g.perm(domain.PermClientsRead, clients.Get))
	mux.HandleFunc("POST /clients", g.perm(domain.PermClientsWrite, clients.Create))
	mux.HandleFunc("PUT /clients/{id}", g.perm(domain.PermClientsWrite, clients.Update))
	mux.HandleFunc("DELETE /clients/{id}", g.perm(domain.PermClientsWrite, clients.Delete))

	suppliers := &handlers.SupplierHandler{Suppliers: svc.Suppliers}
	mux.HandleFunc("GET /suppliers", g.perm(domain.PermSuppliersRead, suppliers.List))
	mux.HandleFunc("GET /suppliers/{id}", g.perm(domain.PermSuppliersRead, suppliers.Get))
	mux.HandleFunc("POST /suppliers", g.perm(domain.PermSuppliersWrite, suppliers.Create))
	mux.HandleFunc("PUT /suppliers/{id}", g.perm(domain.PermSuppliersWrite, suppliers.Update))
	mux.HandleFunc("DELETE /suppliers/{id}", g.perm(domain.PermSuppliersWrite, suppliers.Delete))

	containers := &handlers.ContainerHandler{Containers: svc.Containers}
	mux.HandleFunc("GET /containers", g.perm(domain.PermContainersRead, containers.List))
	mux.HandleFunc("GET /containers/{id}", g.perm(domain.PermContainersRead, containers.Get))
	mux.HandleFunc("POST /containers", g.perm(domain.PermContainersWrite, containers.Create))
	mux.HandleFunc("PUT /containers/{id}", g.perm(domain.PermContainersWrite, containers.Update))
	mux.HandleFunc("DELETE /containers/{id}", g.perm(domain.PermContainersWrite, containers.Delete))

	shipments := &handlers.ShipmentHandler{Shipments: svc.Shipments}
	mux.HandleFunc("GET /shipments", g.perm(domain.PermShipmentsRead, shipments.List))
	mux.HandleFunc("GET /shipments/{id}", g.perm(domain.PermShipmentsRead, shipments.Get))
	mux.HandleFunc("POST /shipments", g.perm(domain.PermShipmentsWrite, shipments.Create))
	mux.HandleFunc("PUT /shipments/{id}", g.perm(domain.PermShipmentsWrite, shipments.Update))
	mux.HandleFunc("PATCH /shipments/{id}/status", g.perm(domain.PermShipmentsWrite, shipments.UpdateStatus))
	mux.HandleFunc("DELETE /shipments/{id}", g.perm(domain.PermShipmentsWrite, shipments.Delete))

	tracking := &handlers.TrackingHandler{Shipments: svc.Shipments, Hub: opt.Hub}
	mux.HandleFunc("GET /tracking/{trackingNumber}", limit.wrap(tracking.Track))
	mux.HandleFunc("GET /tracking/updates/recent", g.perm(domain.PermShipmentsRead, tracking.Recent))
	mux.HandleFunc("POST /tracking/{id}/updates", g.perm(domain.PermTrackingWrite, tracking.AddUpdate))
	if opt.Hub != nil {
		mux.HandleFunc("GET /ws/tracking/{trackingNumber}", limit.wrap(tracking.Stream))
	}

	invoices := &handlers.InvoiceHandler{Invoices: svc.Invoices}
	mux.HandleFunc("GET /invoices", g.perm(domain.PermInvoicesRead, invoices.List))
	mux.HandleFunc("GET /invoices/outstanding", g.perm(domain.PermInvoicesRead, invoices.Outstanding))
	mux.HandleFunc("GET /invoices/{id}", g.perm(domain.PermInvoicesRead, invoices.Get))
	mux.HandleFunc("POST /invoices", g.perm(domain.PermInvoicesWrite, invoices.Create))
	mux.HandleFunc("PUT /invoices/{id}", g.perm(domain.PermInvoicesWrite, invoices.Update))
	mux.HandleFunc("DELETE /invoices/{id}", g.perm(domain.PermInvoicesWrite, invoices.Delete))
	mux.HandleFunc("POST /invoices/{id}/send", g.perm(domain.PermInvoicesWrite, invoices.Send))
	mux.HandleFunc("POST /invoices/{id}/payments", g.perm(domain.PermInvoicesWrite, invoices.RecordPayment))
	mux.HandleFunc("POST /invoices/{id}/cancel", g.perm(domain.PermInvoicesWrite, invoices.Cancel))

	finance := &handlers.FinanceHandler{Finance: svc.Finance}
	mux.HandleFunc("GET /finance/transactions", g.perm(domain.PermFinanceRead, finance.List))
	mux.HandleFunc("POST /finance/transactions", g.perm(domain.PermFinanceWrite, finance.Create))
	mux.HandleFunc("GET /finance/transactions/{id}", g.perm(domain.PermFinanceRead, finance.Get))
	mux.HandleFunc("PUT /finance/transactions/{id}", g.perm(domain.PermFinanceWrite, finance.Update))
	mux.HandleFunc("DELETE /finance/transactions/{id}", g.perm(domain.PermFinanceWrite, finance.Delete))
	mux.HandleFunc("GET /finance/summary", g.perm(domain.PermFinanceRead, finance.Summary))
	for path, typ := range map[string]domain.TransactionType{
		"/expenses": domain.TransactionExpense,
		"/income":   domain.TransactionIncome,
	} {
		list, create := finance.Typed(typ)
		mux.HandleFunc("GET "+path, g.perm(domain.PermFinanceRead, list))
		mux.HandleFunc("POST "+path, g.perm(domain.PermFinanceWrite, create))
	}

	team := &handlers.TeamHandler{Team: svc.Team}
	mux.HandleFunc("GET /team/users", g.perm(domain.PermTeamManage, team.ListUsers))
	mux.HandleFunc("POST /team/users", g.perm(domain.PermTeamManage, team.CreateUser))
	mux.HandleFunc("GET /team/users/{id}", g.perm(domain.PermTeamManage, team.GetUser))
	mux.HandleFunc("PUT /team/users/{id}", g.perm(domain.PermTeamManage, team.UpdateUser))
	mux.HandleFunc("DELETE /team/users/{id}", g.perm(domain.PermTeamManage, team.DeleteUser))
	mux.HandleFunc("PATCH /team/users/{id}/status", g.perm(domain.PermTeamManage, team.SetUserStatus))
	mux.HandleFunc("GET /team/roles", g.perm(domain.PermTeamManage, team.ListRoles))
	mux.HandleFunc("POST /team/roles", g.perm(domain.PermTeamManage, team.CreateRole))
	mux.HandleFunc("GET /team/roles/{id}", g.perm(domain.PermTeamManage, team.GetRole))
	mux.HandleFunc("PUT /team/roles/{id}", g.perm(domain.PermTeamManage, team.UpdateRole))
	mux.HandleFunc("DELETE /team/roles/{id}", g.perm(domain.PermTeamManage, team.DeleteRole))
	mux.HandleFunc("GET /team/permissions", g.perm(domain.PermTeamManage, team.Permissions))

	reports := &handlers.ReportHandler{Reports: svc.Reports}
	mux.HandleFunc("GET /reports", g.perm(domain.PermReportsRead, reports.List))
	mux.HandleFunc("POST /reports", g.perm(domain.PermReportsWrite, reports.Generate))
	mux.HandleFunc("GET /reports/{id}", g.perm(domain.PermReportsRead, reports.Get))
	mux.HandleFunc("GET /reports/{id}/download", g.perm(domain.PermReportsRead, reports.Download))
	mux.HandleFunc("DELETE /reports/{id}", g.perm(domain.PermReportsWrite, reports.Delete))

	settings := &handlers.SettingsHandler{Settings: svc.Settings}
	mux.HandleFunc("GET /settings", g.staff(settings.Get))
	mux.HandleFunc("PUT /settings", g.perm(domain.PermSettingsManage, settings.Update))

	dashboard := &handlers.DashboardHandler{Dashboard: svc.Dashboard}
	mux.HandleFunc("GET /dashboard/stats", g.staff(dashboard.Stats))
	mux.HandleFunc("GET /dashboard/recent-shipments", g.staff(dashboard.RecentShipments))

	portal := &handlers.PortalHandler{Dashboard: svc.Dashboard, Shipments: svc.Shipments, Invoices: svc.Invoices}
	support := &handlers.SupportHandler{Support: svc.Support}
	mux.HandleFunc("GET /portal/dashboard", g.client(portal.Home))
	mux.HandleFunc("GET /portal/shipments", g.client(portal.ListShipments))
	mux.HandleFunc("GET /portal/shipments/{id}", g.client(portal.GetShipment))
	mux.HandleFunc("GET /portal/invoices", g.client(portal.ListInvoices))
	mux.HandleFunc("GET /portal/invoices/{id}", g.client(portal.GetInvoice))
	mux.HandleFunc("GET /portal/tickets", g.client(support.List))
	mux.HandleFunc("POST /portal/tickets", g.client(support.Create))
	mux.HandleFunc("GET /portal/tickets/{id}", g.client(support.Get))
	mux.HandleFunc("POST /portal/tickets/{id}/messages", g.client(support.Reply))

	mux.HandleFunc("GET /support/tickets", g.perm(domain.PermSupportManage, support.List))
	mux.HandleFunc("GET /support/tickets/{id}", g.perm(domain.PermSupportManage, support.Get))
	mux.HandleFunc("POST /support/tickets/{id}/messages", g.perm(domain.PermSupportManage, support.Reply))
	mux.HandleFunc("PATCH /support/tickets/{id}/status", g.perm(domain.PermSupportManage, support.SetStatus))

	public := &handlers.PublicHandler{Settings: svc.Settings, Contact: svc.Contact}
	mux.HandleFunc("GET /public/company", public.Company)
	mux.HandleFunc("POST /public/contact", limit.wrap(public.SendContact))

	origins := opt.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:         600,
	})

	return requestID(loggingMiddleware(recoverer(c.Handler(mux))))
}
