package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardKey = "dashboard:stats"
	dashboardTTL = 60 * time.Second
)

// DashboardService aggregates the landing page figures for staff and
// portal users.
type DashboardService struct {
	Shipments    ports.ShipmentRepository
	Clients      ports.ClientRepository
	Containers   ports.ContainerRepository
	Invoices     ports.InvoiceRepository
	Transactions ports.TransactionRepository
	Tickets      ports.TicketRepository
	Cache        ports.Cache
	Clock        Clock
}

// Stats returns the staff dashboard, served from cache for up to a minute.
func (s *DashboardService) Stats(ctx context.Context) (_ domain.DashboardStats, err error) {
	defer obs.Time(ctx, "dashboard.Stats")(&err)

	if b, err := s.Cache.Get(ctx, dashboardKey); err == nil {
		var st domain.DashboardStats
		if json.Unmarshal(b, &st) == nil {
			return st, nil
		}
	}

	now := s.Clock.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var (
		st       domain.DashboardStats
		totals   []domain.CategoryTotal
		unpaid   ports.OutstandingSummary
		shipBySt map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		shipBySt, err = s.Shipments.CountShipmentsByStatus(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		st.ActiveClients, err = s.Clients.CountClients(gctx, domain.ClientActive)
		return err
	})
	g.Go(func() (err error) {
		st.ContainersByStatus, err = s.Containers.CountContainersByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		totals, err = s.Transactions.CategoryTotals(gctx, monthStart, monthStart.AddDate(0, 1, 0))
		return err
	})
	g.Go(func() (err error) {
		unpaid, err = s.Invoices.OutstandingSummary(gctx, "", domain.DateOnly(now))
		return err
	})
	g.Go(func() (err error) {
		st.OpenTickets, err = s.Tickets.CountOpenTickets(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}

	st.ShipmentsByStatus = shipBySt
	for _, n := range shipBySt {
		st.TotalShipments += n
	}
	st.ActiveShipments = domain.ActiveShipmentCount(shipBySt)
	month := domain.NewFinancialSummary(monthStart, now, totals, nil)
	st.MonthlyIncome = month.TotalIncome
	st.MonthlyExpense = month.TotalExpense
	st.OutstandingAmount = unpaid.Amount
	st.OverdueInvoices = unpaid.Overdue

	if b, err := json.Marshal(st); err == nil {
		if err := s.Cache.Set(ctx, dashboardKey, b, dashboardTTL); err != nil {
			zap.L().Warn("cache dashboard stats", zap.String("req_id", obs.RequestID(ctx)), zap.Error(err))
		}
	}
	return st, nil
}

// Invalidate drops the cached staff dashboard.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.Cache.Delete(ctx, dashboardKey); err != nil {
		zap.L().Warn("invalidate dashboard stats", zap.Error(err))
	}
}

func (s *DashboardService) RecentShipments(ctx context.Context, limit int) ([]domain.Shipment, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	items, err := s.Shipments.RecentShipments(ctx, "", limit)
	if err != nil {
		return nil, fmt.Errorf("recent shipments: %w", err)
	}
	return items, nil
}

// ClientDashboard returns the portal landing figures for one client.
func (s *DashboardService) ClientDashboard(ctx context.Context, clientID string) (_ domain.ClientDashboard, err error) {
	defer obs.Time(ctx, "dashboard.ClientDashboard")(&err)

	var (
		d      domain.ClientDashboard
		unpaid ports.OutstandingSummary
	)
	now := s.Clock.now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.ShipmentsByStatus, err = s.Shipments.CountShipmentsByStatus(gctx, clientID)
		return err
	})
	g.Go(func() (err error) {
		unpaid, err = s.Invoices.OutstandingSummary(gctx, clientID, domain.DateOnly(now))
		return err
	})
	g.Go(func() (err error) {
		d.OpenTickets, err = s.Tickets.CountOpenTickets(gctx, clientID)
		return err
	})
	g.Go(func() (err error) {
		d.RecentShipments, err = s.Shipments.RecentShipments(gctx, clientID, 5)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.ClientDashboard{}, fmt.Errorf("client dashboard %s: %w", clientID, err)
	}

	for _, n := range d.ShipmentsByStatus {
		d.TotalShipments += n
	}
	d.ActiveShipments = domain.ActiveShipmentCount(d.ShipmentsByStatus)
	d.OutstandingAmount = unpaid.Amount
	d.UnpaidInvoices = unpaid.Unpaid
	return d, nil
}
