package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"cargo-logistics-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trackingNumberRe = regexp.MustCompile(`^CTC\d{6}[A-Z2-9]{6}$`)

func TestShipmentCreateOccupiesContainer(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	c := e.client(t, "Acme Freight", "ops@acme.example")
	box := e.container(t, "MSCU1234567")

	sh := e.shipment(t, c.ID, &box.ID)
	assert.Regexp(t, trackingNumberRe, sh.TrackingNumber)
	assert.Equal(t, domain.ShipmentPending, sh.Status)
	assert.Equal(t, []string{domain.EventShipmentCreated}, e.events.types())

	got, err := e.containers.Get(ctx, box.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContainerInUse, got.Status)

	// A container in use cannot be assigned to a second shipment.
	other := &domain.Shipment{ClientID: c.ID, ContainerID: &box.ID, Origin: "Colombo", Destination: "Dubai"}
	err = e.shipments.Create(ctx, other)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "containerId")
}

func TestShipmentCreateValidatesReferences(t *testing.T) {
	e := newEnv(t)
	missing := "does-not-exist"
	sh := &domain.Shipment{ClientID: "nobody", SupplierID: &missing, Origin: "Colombo", Destination: "colombo"}

	err := e.shipments.Create(context.Background(), sh)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "clientId")
	assert.Contains(t, verr.Fields, "supplierId")
	assert.Contains(t, verr.Fields, "destination")
}

func TestTrackingUpdateLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	c := e.client(t, "Acme Freight", "ops@acme.example")
	box := e.container(t, "MSCU1234567")
	sh := e.shipment(t, c.ID, &box.ID)

	u := &domain.TrackingUpdate{Status: domain.ShipmentInTransit, Location: "  Port of   Colombo ", Description: "Loaded"}
	require.NoError(t, e.shipments.AddTrackingUpdate(ctx, sh.ID, u))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Port of Colombo", u.Location)
	require.NotNil(t, u.Latitude)
	assert.InDelta(t, 6.95, *u.Latitude, 1e-9)
	assert.Len(t, e.bcast.updates[sh.TrackingNumber], 1)

	// Empty location falls back to the last reported one.
	last, err := e.shipments.UpdateStatus(ctx, sh.ID, domain.ShipmentDelivered, "", "", "ops")
	require.NoError(t, err)
	assert.Equal(t, "Port of Colombo", last.Location)

	got, err := e.shipments.Get(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentDelivered, got.Status)
	assert.NotNil(t, got.ActualDelivery)
	require.Len(t, got.Updates, 2)

	freed, err := e.containers.Get(ctx, box.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContainerAvailable, freed.Status)

	err = e.shipments.AddTrackingUpdate(ctx, sh.ID, &domain.TrackingUpdate{Status: domain.ShipmentInTransit, Location: "Suez"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	err = e.shipments.Delete(ctx, sh.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	tr, err := e.shipments.Track(ctx, sh.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentDelivered, tr.Status)
	assert.Len(t, tr.Updates, 2)

	assert.Equal(t, []string{
		domain.EventShipmentCreated,
		domain.EventShipmentStatusChanged,
		domain.EventShipmentStatusChanged,
	}, e.events.types())
}

func TestUpdateStatusWithoutHistoryUsesOrigin(t *testing.T) {
	e := newEnv(t)
	c := e.client(t, "Acme Freight", "ops@acme.example")
	sh := e.shipment(t, c.ID, nil)

	u, err := e.shipments.UpdateStatus(context.Background(), sh.ID, domain.ShipmentProcessing, "", "", "ops")
	require.NoError(t, err)
	assert.Equal(t, "Colombo", u.Location)
	assert.Nil(t, u.Latitude)
}

func TestShipmentGetForClientHidesForeignShipments(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	mine := e.client(t, "Acme Freight", "ops@acme.example")
	theirs := e.client(t, "Blue Harbor", "hello@blueharbor.example")
	sh := e.shipment(t, theirs.ID, nil)

	_, err := e.shipments.GetForClient(ctx, mine.ID, sh.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := e.shipments.GetForClient(ctx, theirs.ID, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, sh.TrackingNumber, got.TrackingNumber)
}

func TestShipmentDeletePendingReleasesContainer(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	c := e.client(t, "Acme Freight", "ops@acme.example")
	box := e.container(t, "MSCU1234567")
	sh := e.shipment(t, c.ID, &box.ID)

	require.NoError(t, e.shipments.Delete(ctx, sh.ID))

	got, err := e.containers.Get(ctx, box.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContainerAvailable, got.Status)

	_, err = e.shipments.Get(ctx, sh.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFinishedShipmentKeepsReusedContainerBooked(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	c := e.client(t, "Acme Freight", "ops@acme.example")
	box := e.container(t, "MSCU1234567")

	first := e.shipment(t, c.ID, &box.ID)
	_, err := e.shipments.UpdateStatus(ctx, first.ID, domain.ShipmentDelivered, "Rotterdam", "", "ops")
	require.NoError(t, err)

	second := e.shipment(t, c.ID, &box.ID)
	_, err = e.shipments.UpdateStatus(ctx, second.ID, domain.ShipmentInTransit, "Colombo", "", "ops")
	require.NoError(t, err)

	assertContainer := func(msg string) {
		t.Helper()
		got, err := e.containers.Get(ctx, box.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ContainerInUse, got.Status, msg)
	}

	// A note on the delivered shipment repeats its status.
	_, err = e.shipments.UpdateStatus(ctx, first.ID, domain.ShipmentDelivered, "Rotterdam", "signed by consignee", "ops")
	require.NoError(t, err)
	assertContainer("after a note on the delivered shipment")

	edit, err := e.shipments.Get(ctx, first.ID)
	require.NoError(t, err)
	edit.Notes = "invoice sent"
	require.NoError(t, e.shipments.Update(ctx, first.ID, edit))
	assertContainer("after editing the delivered shipment")

	third := &domain.Shipment{ClientID: c.ID, ContainerID: &box.ID, Origin: "Colombo", Destination: "Dubai"}
	var verr *domain.ValidationError
	require.ErrorAs(t, e.shipments.Create(ctx, third), &verr)
	assert.Contains(t, verr.Fields, "containerId")
}

func TestDeletingCancelledShipmentKeepsReusedContainerBooked(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	c := e.client(t, "Acme Freight", "ops@acme.example")
	box := e.container(t, "MSCU1234567")

	cancelled := e.shipment(t, c.ID, &box.ID)
	_, err := e.shipments.UpdateStatus(ctx, cancelled.ID, domain.ShipmentCancelled, "", "customer withdrew", "ops")
	require.NoError(t, err)

	freed, err := e.containers.Get(ctx, box.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ContainerAvailable, freed.Status)

	e.shipment(t, c.ID, &box.ID)
	require.NoError(t, e.shipments.Delete(ctx, cancelled.ID))

	got, err := e.containers.Get(ctx, box.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContainerInUse, got.Status)
}

func TestShipmentUpdateMovesContainerAndStatus(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	c := e.client(t, "Acme Freight", "ops@acme.example")
	oldBox := e.container(t, "MSCU1234567")
	newBox := e.container(t, "MSCU7654321")
	sh := e.shipment(t, c.ID, &oldBox.ID)

	edit, err := e.shipments.Get(ctx, sh.ID)
	require.NoError(t, err)
	edit.ContainerID = &newBox.ID
	edit.Status = domain.ShipmentInTransit
	require.NoError(t, e.shipments.Update(ctx, sh.ID, edit))

	containerStatus := func(id string) domain.ContainerStatus {
		t.Helper()
		got, err := e.containers.Get(ctx, id)
		require.NoError(t, err)
		return got.Status
	}
	assert.Equal(t, domain.ContainerAvailable, containerStatus(oldBox.ID))
	assert.Equal(t, domain.ContainerInUse, containerStatus(newBox.ID))

	got, err := e.shipments.Get(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentInTransit, got.Status)
	assert.Equal(t, sh.TrackingNumber, got.TrackingNumber)
	assert.Empty(t, got.Updates, "a PUT does not add tracking history")

	got.Status = domain.ShipmentDelivered
	require.NoError(t, e.shipments.Update(ctx, sh.ID, got))
	assert.Equal(t, domain.ContainerAvailable, containerStatus(newBox.ID))

	got, err = e.shipments.Get(ctx, sh.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ActualDelivery)

	got.Status = domain.ShipmentInTransit
	assert.ErrorIs(t, e.shipments.Update(ctx, sh.ID, got), domain.ErrInvalidState)

	assert.Equal(t, []string{
		domain.EventShipmentCreated,
		domain.EventShipmentStatusChanged,
		domain.EventShipmentStatusChanged,
	}, e.events.types())
}

// stallingGeocoder blocks until the caller gives up.
type stallingGeocoder struct{}

func (stallingGeocoder) Geocode(ctx context.Context, _ string) (domain.Coordinates, error) {
	<-ctx.Done()
	return domain.Coordinates{}, ctx.Err()
}

// deadlinePublisher records whether each publish carried a deadline.
type deadlinePublisher struct {
	deadlines []time.Duration
}

func (p *deadlinePublisher) Publish(ctx context.Context, _ domain.Event) error {
	d, ok := ctx.Deadline()
	if !ok {
		p.deadlines = append(p.deadlines, 0)
		return nil
	}
	p.deadlines = append(p.deadlines, time.Until(d))
	return nil
}

func (p *deadlinePublisher) Close() error { return nil }

func TestTrackingUpdateDoesNotWaitOnSlowIntegrations(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	pub := &deadlinePublisher{}
	e.shipments.Events = pub
	e.shipments.Geocoder = stallingGeocoder{}
	e.shipments.GeocodeTimeout = 20 * time.Millisecond

	c := e.client(t, "Acme Freight", "ops@acme.example")
	sh := e.shipment(t, c.ID, nil)

	start := time.Now()
	u := &domain.TrackingUpdate{Status: domain.ShipmentInTransit, Location: "Somewhere at sea"}
	require.NoError(t, e.shipments.AddTrackingUpdate(ctx, sh.ID, u))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Nil(t, u.Latitude)
	assert.NotEmpty(t, u.ID)

	require.Len(t, pub.deadlines, 2)
	for _, d := range pub.deadlines {
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, deliveryTimeout)
	}
}
