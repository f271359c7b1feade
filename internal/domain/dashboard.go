package domain

import "github.com/shopspring/decimal"

// DashboardStats feeds the admin dashboard cards.
type DashboardStats struct {
	ShipmentsByStatus  map[string]int
	TotalShipments     int
	ActiveShipments    int
	ActiveClients      int
	ContainersByStatus map[string]int
	MonthlyIncome      decimal.Decimal
	MonthlyExpense     decimal.Decimal
	OutstandingAmount  decimal.Decimal
	OverdueInvoices    int
	OpenTickets        int
}

// ClientDashboard feeds the client portal landing page.
type ClientDashboard struct {
	ShipmentsByStatus map[string]int
	TotalShipments    int
	ActiveShipments   int
	OutstandingAmount decimal.Decimal
	UnpaidInvoices    int
	OpenTickets       int
	RecentShipments   []Shipment
}

// ActiveShipmentCount sums the statuses that are neither final nor pending.
func ActiveShipmentCount(byStatus map[string]int) int {
	n := 0
	for s, c := range byStatus {
		st := ShipmentStatus(s)
		if st.IsFinal() || st == ShipmentPending {
			continue
		}
		n += c
	}
	return n
}
