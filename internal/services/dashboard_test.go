package services

import (
	"context"
	"testing"

	"cargo-logistics-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	c := e.client(t, "Acme Freight", "ops@acme.example")
	box := e.container(t, "MSCU1234567")
	e.container(t, "MSCU7654321")
	e.shipment(t, c.ID, nil)
	moving := e.shipment(t, c.ID, &box.ID)
	_, err := e.shipments.UpdateStatus(ctx, moving.ID, domain.ShipmentInTransit, "Suez", "", "ops")
	require.NoError(t, err)
	require.NoError(t, e.finance.Create(ctx, &domain.Transaction{Type: domain.TransactionExpense, Category: "fuel", Amount: decimal.NewFromInt(75)}))

	inv := draftInvoice(t, e, c.ID)
	_, err = e.invoices.Send(ctx, inv.ID)
	require.NoError(t, err)

	st, err := e.dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalShipments)
	assert.Equal(t, 1, st.ActiveShipments)
	assert.Equal(t, 1, st.ShipmentsByStatus["pending"])
	assert.Equal(t, 1, st.ActiveClients)
	assert.Equal(t, 1, st.ContainersByStatus["in_use"])
	assert.Equal(t, "75.00", st.MonthlyExpense.StringFixed(2))
	assert.Equal(t, "1100.00", st.OutstandingAmount.StringFixed(2))

	// Served from cache until invalidated.
	e.shipment(t, c.ID, nil)
	st, err = e.dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalShipments)

	e.dashboard.Invalidate(ctx)
	st, err = e.dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalShipments)
}

func TestClientDashboard(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	acme := e.client(t, "Acme Freight", "ops@acme.example")
	other := e.client(t, "Blue Harbor", "hello@blueharbor.example")
	e.shipment(t, acme.ID, nil)
	e.shipment(t, other.ID, nil)
	inv := draftInvoice(t, e, acme.ID)
	_, err := e.invoices.Send(ctx, inv.ID)
	require.NoError(t, err)

	d, err := e.dashboard.ClientDashboard(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.TotalShipments)
	assert.Equal(t, 1, d.UnpaidInvoices)
	assert.Equal(t, "1100.00", d.OutstandingAmount.StringFixed(2))
	require.Len(t, d.RecentShipments, 1)
	assert.Equal(t, acme.ID, d.RecentShipments[0].ClientID)
}
