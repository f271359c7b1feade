package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cargo-logistics-service/internal/adapters/cache"
	"cargo-logistics-service/internal/adapters/events"
	"cargo-logistics-service/internal/adapters/export"
	"cargo-logistics-service/internal/adapters/geocode"
	"cargo-logistics-service/internal/adapters/notify"
	"cargo-logistics-service/internal/adapters/repositories"
	"cargo-logistics-service/internal/api"
	"cargo-logistics-service/internal/auth"
	"cargo-logistics-service/internal/config"
	"cargo-logistics-service/internal/platform/db"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"
	"cargo-logistics-service/internal/realtime"
	"cargo-logistics-service/internal/services"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, Kafka, RabbitMQ, ORS) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := obs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := run(cfg); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := repositories.InitSchema(ctx, conn); err != nil {
		return err
	}
	// Reference data is optional for local runs.
	if _, err := os.Stat(cfg.SeedPath); err == nil {
		if err := repositories.SeedFromJSON(ctx, conn, cfg.SeedPath); err != nil {
			return err
		}
		zap.L().Info("seed loaded", zap.String("path", cfg.SeedPath))
	}

	var store ports.Cache = cache.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rdb, err := cache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		store = cache.NewRedisCache(rdb, "cargo:")
		zap.L().Info("using redis cache", zap.String("addr", cfg.RedisAddr))
	}

	var publisher ports.EventPublisher = events.NoopPublisher{}
	if cfg.KafkaBroker != "" {
		publisher = events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
		zap.L().Info("publishing events to kafka", zap.String("broker", cfg.KafkaBroker), zap.String("topic", cfg.KafkaTopic))
	}
	defer publisher.Close()

	var notifier ports.Notifier = notify.LogNotifier{}
	if cfg.RabbitMQURL != "" {
		mq, err := notify.NewRabbitMQNotifier(cfg.RabbitMQURL, cfg.NotifyQueue)
		if err != nil {
			return err
		}
		notifier = mq
	}
	defer notifier.Close()

	var geocoder ports.Geocoder
	if cfg.ORSAPIKey != "" {
		// Resolved locations persist in the database to avoid repeated lookups.
		g, err := geocode.NewORSGeocoder(cfg.ORSAPIKey, geocode.NewSQLCache(conn), geocode.WithMaxAttempts(1))
		if err != nil {
			return err
		}
		geocoder = g
	} else {
		zap.L().Info("ORS_API_KEY not set, tracking updates will not be geocoded")
	}

	hub := realtime.NewHub(cfg.CORSOrigins)
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(ctx)
	}()

	svc := wire(cfg, conn, store, publisher, notifier, geocoder, hub)
	router := api.NewRouter(svc, api.Options{
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimitRPS,
		RateBurst:   cfg.RateLimitBurst,
		Hub:         hub,
		Ping:        conn.PingContext,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		zap.L().Info("server listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		zap.L().Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	stop()
	<-hubDone
	return err
}

func wire(cfg config.Config, conn *sql.DB, store ports.Cache, publisher ports.EventPublisher,
	notifier ports.Notifier, geocoder ports.Geocoder, hub *realtime.Hub) api.Services {
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

	var svc api.Services
	svc.Settings = &services.SettingsService{Repo: repositories.NewSQLSettingsRepository(conn)}
	svc.Clients = &services.ClientService{Repo: clientRepo}
	svc.Suppliers = &services.SupplierService{Repo: supplierRepo}
	svc.Containers = &services.ContainerService{Repo: containerRepo, Suppliers: supplierRepo}
	svc.Shipments = &services.ShipmentService{
		Repo:        shipmentRepo,
		Clients:     clientRepo,
		Containers:  containerRepo,
		Suppliers:   supplierRepo,
		Events:      publisher,
		Broadcaster: hub,
		Geocoder:    geocoder,
		Prefix:      cfg.CompanyPrefix,
	}
	svc.Invoices = &services.InvoiceService{
		Repo:      invoiceRepo,
		Clients:   clientRepo,
		Shipments: shipmentRepo,
		Settings:  svc.Settings,
		Events:    publisher,
		Notifier:  notifier,
	}
	svc.Finance = &services.FinanceService{Repo: txRepo, Settings: svc.Settings}
	svc.Auth = &services.AuthService{
		Users:    userRepo,
		Roles:    roleRepo,
		Clients:  clientRepo,
		Hasher:   auth.NewBcryptHasher(),
		Tokens:   auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Cache:    store,
		Notifier: notifier,
	}
	svc.Team = &services.TeamService{Users: userRepo, Roles: roleRepo, Clients: clientRepo, Hasher: svc.Auth.Hasher, Auth: svc.Auth}
	svc.Reports = &services.ReportService{Repo: reportRepo, Source: reportRepo, Finance: svc.Finance, Exporter: export.XLSXExporter{}}
	svc.Dashboard = &services.DashboardService{
		Shipments:    shipmentRepo,
		Clients:      clientRepo,
		Containers:   containerRepo,
		Invoices:     invoiceRepo,
		Transactions: txRepo,
		Tickets:      ticketRepo,
		Cache:        store,
	}
	svc.Support = &services.SupportService{
		Repo:      ticketRepo,
		Users:     userRepo,
		Shipments: shipmentRepo,
		Settings:  svc.Settings,
		Notifier:  notifier,
		Prefix:    cfg.CompanyPrefix,
	}
	svc.Contact = &services.ContactService{Settings: svc.Settings, Notifier: notifier}
	return svc
}
