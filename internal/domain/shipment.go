package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ShipmentStatus string

const (
	ShipmentPending          ShipmentStatus = "pending"
	ShipmentProcessing       ShipmentStatus = "processing"
	ShipmentInTransit        ShipmentStatus = "in_transit"
	ShipmentAtPort           ShipmentStatus = "at_port"
	ShipmentCustomsClearance ShipmentStatus = "customs_clearance"
	ShipmentOutForDelivery   ShipmentStatus = "out_for_delivery"
	ShipmentDelivered        ShipmentStatus = "delivered"
	ShipmentCancelled        ShipmentStatus = "cancelled"
	ShipmentOnHold           ShipmentStatus = "on_hold"
)

// ShipmentStatuses lists every status in lifecycle order.
var ShipmentStatuses = []ShipmentStatus{
	ShipmentPending, ShipmentProcessing, ShipmentInTransit, ShipmentAtPort,
	ShipmentCustomsClearance, ShipmentOutForDelivery, ShipmentDelivered,
	ShipmentCancelled, ShipmentOnHold,
}

func (s ShipmentStatus) Valid() bool {
	for _, st := range ShipmentStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// IsFinal reports whether no further status change is allowed.
func (s ShipmentStatus) IsFinal() bool {
	return s == ShipmentDelivered || s == ShipmentCancelled
}

type CargoType string

const (
	CargoGeneral    CargoType = "general"
	CargoPerishable CargoType = "perishable"
	CargoHazardous  CargoType = "hazardous"
	CargoFragile    CargoType = "fragile"
	CargoVehicles   CargoType = "vehicles"
	CargoBulk       CargoType = "bulk"
)

func (c CargoType) Valid() bool {
	switch c {
	case CargoGeneral, CargoPerishable, CargoHazardous, CargoFragile, CargoVehicles, CargoBulk:
		return true
	}
	return false
}

// Consignee is the party receiving the cargo at destination.
type Consignee struct {
	Name    string
	Phone   string
	Address string
}

type Shipment struct {
	ID                string
	TrackingNumber    string
	ClientID          string
	ContainerID       *string
	SupplierID        *string
	Origin            string
	Destination       string
	CargoDescription  string
	CargoType         CargoType
	WeightKg          decimal.Decimal
	VolumeCbm         decimal.Decimal
	Status            ShipmentStatus
	ShippingDate      *time.Time
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time
	Consignee         Consignee
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Populated on detail reads only.
	ClientName string
	Updates    []TrackingUpdate
}

func (s *Shipment) Normalize() {
	s.ClientID = strings.TrimSpace(s.ClientID)
	s.Origin = strings.TrimSpace(s.Origin)
	s.Destination = strings.TrimSpace(s.Destination)
	s.CargoDescription = strings.TrimSpace(s.CargoDescription)
	if s.CargoType == "" {
		s.CargoType = CargoGeneral
	}
	if s.Status == "" {
		s.Status = ShipmentPending
	}
	s.ContainerID = blankToNil(s.ContainerID)
	s.SupplierID = blankToNil(s.SupplierID)
}

func (s *Shipment) Validate() error {
	v := &ValidationError{}
	requireText(v, "clientId", s.ClientID)
	requireText(v, "origin", s.Origin)
	requireText(v, "destination", s.Destination)
	if s.Origin != "" && strings.EqualFold(s.Origin, s.Destination) {
		v.Add("destination", "must differ from origin")
	}
	if !s.CargoType.Valid() {
		v.Add("cargoType", "is not a known cargo type")
	}
	if !s.Status.Valid() {
		v.Add("status", "is not a known shipment status")
	}
	checkNonNegative(v, "weightKg", s.WeightKg)
	checkNonNegative(v, "volumeCbm", s.VolumeCbm)
	if s.ShippingDate != nil && s.EstimatedDelivery != nil && s.EstimatedDelivery.Before(*s.ShippingDate) {
		v.Add("estimatedDelivery", "must not be before the shipping date")
	}
	checkPhone(v, "consignee.phone", s.Consignee.Phone)
	return v.Err()
}

// ChangeStatus moves the shipment to next. Final shipments cannot change;
// reaching delivered stamps the actual delivery time when unset.
func (s *Shipment) ChangeStatus(next ShipmentStatus, at time.Time) error {
	if !next.Valid() {
		return NewValidationError("status", "is not a known shipment status")
	}
	if s.Status.IsFinal() && next != s.Status {
		return fmt.Errorf("shipment %s is %s: %w", s.TrackingNumber, s.Status, ErrInvalidState)
	}
	s.Status = next
	if next == ShipmentDelivered && s.ActualDelivery == nil {
		t := at.UTC()
		s.ActualDelivery = &t
	}
	return nil
}

// Deletable reports whether the shipment may be hard-deleted.
func (s *Shipment) Deletable() bool {
	return s.Status == ShipmentPending || s.Status == ShipmentCancelled
}

func blankToNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
