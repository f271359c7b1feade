package services

import (
	"context"
	"fmt"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"

	"go.uber.org/zap"
)

const (
	trackingNumberAttempts = 3
	defaultGeocodeTimeout  = 3 * time.Second
)

// ShipmentService owns the shipment lifecycle: creation with a tracking
// number, status changes recorded as tracking updates, and the container
// occupancy that follows from them.
type ShipmentService struct {
	Repo        ports.ShipmentRepository
	Clients     ports.ClientRepository
	Containers  ports.ContainerRepository
	Suppliers   ports.SupplierRepository
	Events      ports.EventPublisher
	Broadcaster ports.TrackingBroadcaster
	// Geocoder is optional; without it updates carry no coordinates.
	Geocoder ports.Geocoder
	// GeocodeTimeout bounds the lookup on the request path. Zero means 3s.
	GeocodeTimeout time.Duration
	Prefix         string
	Clock          Clock
}

func (s *ShipmentService) List(ctx context.Context, f domain.ShipmentFilter) (_ domain.Page[domain.Shipment], err error) {
	defer obs.Time(ctx, "shipments.List")(&err)

	f.ListParams = f.ListParams.Normalize()
	if f.Status != "" && !domain.ShipmentStatus(f.Status).Valid() {
		return domain.Page[domain.Shipment]{}, domain.NewValidationError("status", "is not a known shipment status")
	}
	items, total, err := s.Repo.ListShipments(ctx, f)
	if err != nil {
		return domain.Page[domain.Shipment]{}, fmt.Errorf("list shipments: %w", err)
	}
	return domain.NewPage(items, total, f.ListParams), nil
}

// Get returns the shipment with its tracking history.
func (s *ShipmentService) Get(ctx context.Context, id string) (*domain.Shipment, error) {
	sh, err := s.Repo.GetShipment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	if sh.Updates, err = s.Repo.ListTrackingUpdates(ctx, id); err != nil {
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return sh, nil
}

// GetForClient is Get restricted to shipments owned by clientID. Foreign
// shipments are reported as not found.
func (s *ShipmentService) GetForClient(ctx context.Context, clientID, id string) (*domain.Shipment, error) {
	sh, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sh.ClientID != clientID {
		return nil, fmt.Errorf("get shipment %s: %w", id, domain.ErrNotFound)
	}
	return sh, nil
}

// validate checks the shipment and the rows it references. current is the
// container the shipment already holds, which stays assignable.
func (s *ShipmentService) validate(ctx context.Context, sh *domain.Shipment, current *string) error {
	sh.Normalize()
	v := fieldErrors(sh.Validate())

	if sh.ClientID != "" {
		if _, err := s.Clients.GetClient(ctx, sh.ClientID); err != nil {
			if !isNotFound(err) {
				return fmt.Errorf("check client: %w", err)
			}
			v.Add("clientId", "does not exist")
		}
	}

	err := reference(v, "supplierId", sh.SupplierID, func(id string) error {
		_, err := s.Suppliers.GetSupplier(ctx, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("check supplier: %w", err)
	}

	if sh.ContainerID != nil && !sameRef(sh.ContainerID, current) {
		c, err := s.Containers.GetContainer(ctx, *sh.ContainerID)
		switch {
		case isNotFound(err):
			v.Add("containerId", "does not exist")
		case err != nil:
			return fmt.Errorf("check container: %w", err)
		case c.Status != domain.ContainerAvailable:
			v.Add("containerId", "is not available")
		}
	}
	return v.Err()
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *ShipmentService) Create(ctx context.Context, sh *domain.Shipment) (err error) {
	defer obs.Time(ctx, "shipments.Create")(&err)

	sh.ID = ""
	sh.Status = ""
	sh.ActualDelivery = nil
	if err := s.validate(ctx, sh, nil); err != nil {
		return err
	}

	now := s.Clock.now()
	for attempt := 1; ; attempt++ {
		sh.TrackingNumber = domain.NewTrackingNumber(s.Prefix, now)
		err = s.Repo.CreateShipment(ctx, sh)
		if err == nil {
			break
		}
		if !isConflict(err) || attempt == trackingNumberAttempts {
			return fmt.Errorf("create shipment: %w", err)
		}
		sh.ID = ""
	}

	s.occupy(ctx, sh.ContainerID)

	publish(ctx, s.Events, domain.Event{
		Type:       domain.EventShipmentCreated,
		Key:        sh.ID,
		OccurredAt: now,
		Data: map[string]any{
			"trackingNumber": sh.TrackingNumber,
			"clientId":       sh.ClientID,
			"origin":         sh.Origin,
			"destination":    sh.Destination,
		},
	})
	return nil
}

// Update edits shipment details. Status changes go through the same
// transition rules as tracking updates but do not add one.
func (s *ShipmentService) Update(ctx context.Context, id string, sh *domain.Shipment) (err error) {
	defer obs.Time(ctx, "shipments.Update")(&err)

	existing, err := s.Repo.GetShipment(ctx, id)
	if err != nil {
		return fmt.Errorf("update shipment: %w", err)
	}

	next := sh.Status
	sh.ID = id
	sh.TrackingNumber = existing.TrackingNumber
	sh.CreatedAt = existing.CreatedAt
	sh.Status = existing.Status
	if sh.ActualDelivery == nil {
		sh.ActualDelivery = existing.ActualDelivery
	}

	if err := s.validate(ctx, sh, existing.ContainerID); err != nil {
		return err
	}
	if next != "" && next != existing.Status {
		if err := sh.ChangeStatus(next, s.Clock.now()); err != nil {
			return err
		}
	}

	if err := s.Repo.UpdateShipment(ctx, sh); err != nil {
		return fmt.Errorf("update shipment: %w", err)
	}

	// Only open shipments hold their container. A finished one may point at
	// a container that has since been assigned elsewhere.
	held, holds := !existing.Status.IsFinal(), !sh.Status.IsFinal()
	if held && (!holds || !sameRef(existing.ContainerID, sh.ContainerID)) {
		s.release(ctx, existing.ContainerID)
	}
	if holds {
		s.occupy(ctx, sh.ContainerID)
	}

	if next != "" && next != existing.Status {
		s.statusChanged(ctx, sh, existing.Status, domain.TrackingUpdate{Status: sh.Status})
	}
	return nil
}

// Delete removes a pending or cancelled shipment.
func (s *ShipmentService) Delete(ctx context.Context, id string) error {
	sh, err := s.Repo.GetShipment(ctx, id)
	if err != nil {
		return fmt.Errorf("delete shipment: %w", err)
	}
	if !sh.Deletable() {
		return fmt.Errorf("delete shipment %s in status %s: %w", sh.TrackingNumber, sh.Status, domain.ErrInvalidState)
	}
	if err := s.Repo.DeleteShipment(ctx, id); err != nil {
		return fmt.Errorf("delete shipment: %w", err)
	}
	if !sh.Status.IsFinal() {
		s.release(ctx, sh.ContainerID)
	}
	return nil
}

// AddTrackingUpdate records u against the shipment and moves the shipment
// to u.Status.
func (s *ShipmentService) AddTrackingUpdate(ctx context.Context, shipmentID string, u *domain.TrackingUpdate) (err error) {
	defer obs.Time(ctx, "shipments.AddTrackingUpdate")(&err)

	u.Normalize()
	if err := u.Validate(); err != nil {
		return err
	}

	sh, err := s.Repo.GetShipment(ctx, shipmentID)
	if err != nil {
		return fmt.Errorf("add tracking update: %w", err)
	}
	prev := sh.Status

	now := s.Clock.now()
	if err := sh.ChangeStatus(u.Status, now); err != nil {
		return err
	}
	if u.OccurredAt.IsZero() || u.OccurredAt.After(now) {
		u.OccurredAt = now
	}

	if s.Geocoder != nil && u.Latitude == nil {
		s.locate(ctx, u)
	}

	u.ID = ""
	if err := s.Repo.RecordTrackingUpdate(ctx, sh, u); err != nil {
		return fmt.Errorf("add tracking update: %w", err)
	}
	u.TrackingNumber = sh.TrackingNumber

	if !prev.IsFinal() && sh.Status.IsFinal() {
		s.release(ctx, sh.ContainerID)
	}
	s.statusChanged(ctx, sh, prev, *u)
	return nil
}

// locate fills in coordinates for u. Lookup failures and timeouts leave the
// update without coordinates.
func (s *ShipmentService) locate(ctx context.Context, u *domain.TrackingUpdate) {
	timeout := s.GeocodeTimeout
	if timeout <= 0 {
		timeout = defaultGeocodeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c, err := s.Geocoder.Geocode(ctx, u.Location)
	if err != nil {
		zap.L().Warn("geocode tracking location failed",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.String("location", u.Location),
			zap.Error(err),
		)
		return
	}
	u.SetCoordinates(c)
}

// UpdateStatus is the quick status change used by the shipments list. An
// empty location falls back to the last reported one, then the origin.
func (s *ShipmentService) UpdateStatus(ctx context.Context, id string, status domain.ShipmentStatus, location, description, by string) (*domain.TrackingUpdate, error) {
	if location == "" {
		updates, err := s.Repo.ListTrackingUpdates(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("update status: %w", err)
		}
		if n := len(updates); n > 0 {
			location = updates[n-1].Location
		} else if sh, err := s.Repo.GetShipment(ctx, id); err == nil {
			location = sh.Origin
		} else {
			return nil, fmt.Errorf("update status: %w", err)
		}
	}

	u := &domain.TrackingUpdate{Status: status, Location: location, Description: description, CreatedBy: by}
	if err := s.AddTrackingUpdate(ctx, id, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Track is the public lookup by tracking number.
func (s *ShipmentService) Track(ctx context.Context, trackingNumber string) (_ *domain.PublicTracking, err error) {
	defer obs.Time(ctx, "shipments.Track")(&err)

	sh, err := s.Repo.GetShipmentByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", trackingNumber, err)
	}
	updates, err := s.Repo.ListTrackingUpdates(ctx, sh.ID)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", trackingNumber, err)
	}
	return &domain.PublicTracking{
		TrackingNumber:    sh.TrackingNumber,
		Status:            sh.Status,
		Origin:            sh.Origin,
		Destination:       sh.Destination,
		CargoDescription:  sh.CargoDescription,
		ShippingDate:      sh.ShippingDate,
		EstimatedDelivery: sh.EstimatedDelivery,
		ActualDelivery:    sh.ActualDelivery,
		Updates:           updates,
	}, nil
}

func (s *ShipmentService) RecentUpdates(ctx context.Context, limit int) ([]domain.TrackingUpdate, error) {
	if limit <= 0 || limit > domain.MaxPageSize {
		limit = 10
	}
	out, err := s.Repo.RecentTrackingUpdates(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent tracking updates: %w", err)
	}
	return out, nil
}

func (s *ShipmentService) statusChanged(ctx context.Context, sh *domain.Shipment, prev domain.ShipmentStatus, u domain.TrackingUpdate) {
	publish(ctx, s.Events, domain.Event{
		Type: domain.EventShipmentStatusChanged,
		Key:  sh.ID,
		Data: map[string]any{
			"trackingNumber": sh.TrackingNumber,
			"from":           string(prev),
			"to":             string(sh.Status),
			"location":       u.Location,
		},
	})
	if s.Broadcaster != nil && u.ID != "" {
		s.Broadcaster.Broadcast(sh.TrackingNumber, u)
	}
}

func (s *ShipmentService) occupy(ctx context.Context, containerID *string) {
	s.setContainer(ctx, containerID, domain.ContainerInUse)
}

func (s *ShipmentService) release(ctx context.Context, containerID *string) {
	s.setContainer(ctx, containerID, domain.ContainerAvailable)
}

// setContainer keeps container occupancy in step with shipments. A failure
// leaves the container status stale and is logged.
func (s *ShipmentService) setContainer(ctx context.Context, containerID *string, status domain.ContainerStatus) {
	if containerID == nil {
		return
	}
	if err := s.Containers.SetContainerStatus(ctx, *containerID, status); err != nil {
		zap.L().Warn("set container status failed",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.String("container_id", *containerID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}
