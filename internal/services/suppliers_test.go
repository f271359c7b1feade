package services

import (
	"context"
	"testing"

	"cargo-logistics-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupplierValidationAndFilter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	bad := &domain.Supplier{Name: " ", Email: "nope", ServiceType: "airline", Rating: 9}
	var verr *domain.ValidationError
	require.ErrorAs(t, e.suppliers.Create(ctx, bad), &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "serviceType")
	assert.Contains(t, verr.Fields, "rating")

	line := &domain.Supplier{Name: "Blue Ocean Lines", Email: "ops@blueocean.example", ServiceType: domain.ServiceShippingLine}
	require.NoError(t, e.suppliers.Create(ctx, line))
	haulier := &domain.Supplier{Name: "Lanka Haulage", ServiceType: domain.ServiceTrucking}
	require.NoError(t, e.suppliers.Create(ctx, haulier))
	assert.Equal(t, domain.ClientActive, haulier.Status)

	page, err := e.suppliers.List(ctx, domain.SupplierFilter{ServiceType: string(domain.ServiceTrucking)})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Lanka Haulage", page.Items[0].Name)
}

func TestContainerSupplierReference(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	missing := "no-such-supplier"
	c := &domain.Container{ContainerNumber: "msku 1234565", Type: domain.Container40ft, SupplierID: &missing}
	var verr *domain.ValidationError
	require.ErrorAs(t, e.containers.Create(ctx, c), &verr)
	assert.Contains(t, verr.Fields, "supplierId")

	sup := &domain.Supplier{Name: "Blue Ocean Lines", ServiceType: domain.ServiceShippingLine}
	require.NoError(t, e.suppliers.Create(ctx, sup))
	c.SupplierID = &sup.ID
	require.NoError(t, e.containers.Create(ctx, c))
	assert.Equal(t, "MSKU1234565", c.ContainerNumber)
	assert.Equal(t, domain.ContainerAvailable, c.Status)

	dup := &domain.Container{ContainerNumber: "MSKU1234565", Type: domain.Container40ft}
	require.ErrorAs(t, e.containers.Create(ctx, dup), &verr)
	assert.Contains(t, verr.Fields, "containerNumber")

	// The supplier is in use until the container goes away.
	assert.ErrorIs(t, e.suppliers.Delete(ctx, sup.ID), domain.ErrConflict)
	require.NoError(t, e.containers.Delete(ctx, c.ID))
	require.NoError(t, e.suppliers.Delete(ctx, sup.ID))

	_, err := e.suppliers.Get(ctx, sup.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
