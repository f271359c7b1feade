package dto

import (
	"cargo-logistics-service/internal/domain"

	"github.com/shopspring/decimal"
)

type DashboardStatsResponse struct {
	ShipmentsByStatus  map[string]int  `json:"shipmentsByStatus"`
	TotalShipments     int             `json:"totalShipments"`
	ActiveShipments    int             `json:"activeShipments"`
	ActiveClients      int             `json:"activeClients"`
	ContainersByStatus map[string]int  `json:"containersByStatus"`
	MonthlyIncome      decimal.Decimal `json:"monthlyIncome"`
	MonthlyExpense     decimal.Decimal `json:"monthlyExpense"`
	OutstandingAmount  decimal.Decimal `json:"outstandingAmount"`
	OverdueInvoices    int             `json:"overdueInvoices"`
	OpenTickets        int             `json:"openTickets"`
}

func NewDashboardStats(s domain.DashboardStats) DashboardStatsResponse {
	return DashboardStatsResponse{
		ShipmentsByStatus:  nonNil(s.ShipmentsByStatus),
		TotalShipments:     s.TotalShipments,
		ActiveShipments:    s.ActiveShipments,
		ActiveClients:      s.ActiveClients,
		ContainersByStatus: nonNil(s.ContainersByStatus),
		MonthlyIncome:      s.MonthlyIncome,
		MonthlyExpense:     s.MonthlyExpense,
		OutstandingAmount:  s.OutstandingAmount,
		OverdueInvoices:    s.OverdueInvoices,
		OpenTickets:        s.OpenTickets,
	}
}

type ClientDashboardResponse struct {
	ShipmentsByStatus map[string]int     `json:"shipmentsByStatus"`
	TotalShipments    int                `json:"totalShipments"`
	ActiveShipments   int                `json:"activeShipments"`
	OutstandingAmount decimal.Decimal    `json:"outstandingAmount"`
	UnpaidInvoices    int                `json:"unpaidInvoices"`
	OpenTickets       int                `json:"openTickets"`
	RecentShipments   []ShipmentResponse `json:"recentShipments"`
}

func NewClientDashboard(d domain.ClientDashboard) ClientDashboardResponse {
	return ClientDashboardResponse{
		ShipmentsByStatus: nonNil(d.ShipmentsByStatus),
		TotalShipments:    d.TotalShipments,
		ActiveShipments:   d.ActiveShipments,
		OutstandingAmount: d.OutstandingAmount,
		UnpaidInvoices:    d.UnpaidInvoices,
		OpenTickets:       d.OpenTickets,
		RecentShipments:   Map(d.RecentShipments, NewShipment),
	}
}

func nonNil(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
