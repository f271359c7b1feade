package dto

import (
	"time"

	"cargo-logistics-service/internal/domain"

	"github.com/shopspring/decimal"
)

type Consignee struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type ShipmentRequest struct {
	ClientID          string          `json:"clientId"`
	ContainerID       *string         `json:"containerId"`
	SupplierID        *string         `json:"supplierId"`
	Origin            string          `json:"origin"`
	Destination       string          `json:"destination"`
	CargoDescription  string          `json:"cargoDescription"`
	CargoType         string          `json:"cargoType"`
	WeightKg          decimal.Decimal `json:"weightKg"`
	VolumeCbm         decimal.Decimal `json:"volumeCbm"`
	Status            string          `json:"status"`
	ShippingDate      *Date           `json:"shippingDate"`
	EstimatedDelivery *Date           `json:"estimatedDelivery"`
	ActualDelivery    *Date           `json:"actualDelivery"`
	Consignee         Consignee       `json:"consignee"`
	Notes             string          `json:"notes"`
}

func (r ShipmentRequest) Domain() *domain.Shipment {
	return &domain.Shipment{
		ClientID:          r.ClientID,
		ContainerID:       r.ContainerID,
		SupplierID:        r.SupplierID,
		Origin:            r.Origin,
		Destination:       r.Destination,
		CargoDescription:  r.CargoDescription,
		CargoType:         domain.CargoType(r.CargoType),
		WeightKg:          r.WeightKg,
		VolumeCbm:         r.VolumeCbm,
		Status:            domain.ShipmentStatus(r.Status),
		ShippingDate:      r.ShippingDate.Ptr(),
		EstimatedDelivery: r.EstimatedDelivery.Ptr(),
		ActualDelivery:    r.ActualDelivery.Ptr(),
		Consignee:         domain.Consignee(r.Consignee),
		Notes:             r.Notes,
	}
}

type ShipmentResponse struct {
	ID                string                   `json:"id"`
	TrackingNumber    string                   `json:"trackingNumber"`
	ClientID          string                   `json:"clientId"`
	ClientName        string                   `json:"clientName,omitempty"`
	ContainerID       *string                  `json:"containerId"`
	SupplierID        *string                  `json:"supplierId"`
	Origin            string                   `json:"origin"`
	Destination       string                   `json:"destination"`
	CargoDescription  string                   `json:"cargoDescription"`
	CargoType         string                   `json:"cargoType"`
	WeightKg          decimal.Decimal          `json:"weightKg"`
	VolumeCbm         decimal.Decimal          `json:"volumeCbm"`
	Status            string                   `json:"status"`
	ShippingDate      *Date                    `json:"shippingDate"`
	EstimatedDelivery *Date                    `json:"estimatedDelivery"`
	ActualDelivery    *time.Time               `json:"actualDelivery"`
	Consignee         Consignee                `json:"consignee"`
	Notes             string                   `json:"notes"`
	CreatedAt         time.Time                `json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
	Updates           []TrackingUpdateResponse `json:"trackingUpdates,omitempty"`
}

func NewShipment(s domain.Shipment) ShipmentResponse {
	res := ShipmentResponse{
		ID:                s.ID,
		TrackingNumber:    s.TrackingNumber,
		ClientID:          s.ClientID,
		ClientName:        s.ClientName,
		ContainerID:       s.ContainerID,
		SupplierID:        s.SupplierID,
		Origin:            s.Origin,
		Destination:       s.Destination,
		CargoDescription:  s.CargoDescription,
		CargoType:         string(s.CargoType),
		WeightKg:          s.WeightKg,
		VolumeCbm:         s.VolumeCbm,
		Status:            string(s.Status),
		ShippingDate:      NewDate(s.ShippingDate),
		EstimatedDelivery: NewDate(s.EstimatedDelivery),
		ActualDelivery:    s.ActualDelivery,
		Consignee:         Consignee(s.Consignee),
		Notes:             s.Notes,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	if s.Updates != nil {
		res.Updates = Map(s.Updates, NewTrackingUpdate)
	}
	return res
}

type TrackingUpdateRequest struct {
	Status      string     `json:"status"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	OccurredAt  *time.Time `json:"occurredAt"`
}

func (r TrackingUpdateRequest) Domain(by string) *domain.TrackingUpdate {
	u := &domain.TrackingUpdate{
		Status:      domain.ShipmentStatus(r.Status),
		Location:    r.Location,
		Description: r.Description,
		CreatedBy:   by,
	}
	if r.Latitude != nil && r.Longitude != nil {
		u.SetCoordinates(domain.Coordinates{Lat: *r.Latitude, Lon: *r.Longitude})
	}
	if r.OccurredAt != nil {
		u.OccurredAt = r.OccurredAt.UTC()
	}
	return u
}

type StatusChangeRequest struct {
	Status      string `json:"status"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type TrackingUpdateResponse struct {
	ID             string    `json:"id"`
	ShipmentID     string    `json:"shipmentId"`
	TrackingNumber string    `json:"trackingNumber,omitempty"`
	Status         string    `json:"status"`
	Location       string    `json:"location"`
	Description    string    `json:"description"`
	Latitude       *float64  `json:"latitude"`
	Longitude      *float64  `json:"longitude"`
	OccurredAt     time.Time `json:"occurredAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

func NewTrackingUpdate(u domain.TrackingUpdate) TrackingUpdateResponse {
	return TrackingUpdateResponse{
		ID:             u.ID,
		ShipmentID:     u.ShipmentID,
		TrackingNumber: u.TrackingNumber,
		Status:         string(u.Status),
		Location:       u.Location,
		Description:    u.Description,
		Latitude:       u.Latitude,
		Longitude:      u.Longitude,
		OccurredAt:     u.OccurredAt,
		CreatedAt:      u.CreatedAt,
	}
}

// PublicTrackingResponse omits client, cargo weight and internal notes.
type PublicTrackingResponse struct {
	TrackingNumber    string                   `json:"trackingNumber"`
	Status            string                   `json:"status"`
	Origin            string                   `json:"origin"`
	Destination       string                   `json:"destination"`
	CargoDescription  string                   `json:"cargoDescription"`
	ShippingDate      *Date                    `json:"shippingDate"`
	EstimatedDelivery *Date                    `json:"estimatedDelivery"`
	ActualDelivery    *time.Time               `json:"actualDelivery"`
	Updates           []TrackingUpdateResponse `json:"trackingUpdates"`
}

func NewPublicTracking(p domain.PublicTracking) PublicTrackingResponse {
	updates := Map(p.Updates, NewTrackingUpdate)
	for i := range updates {
		updates[i].ShipmentID = ""
	}
	return PublicTrackingResponse{
		TrackingNumber:    p.TrackingNumber,
		Status:            string(p.Status),
		Origin:            p.Origin,
		Destination:       p.Destination,
		CargoDescription:  p.CargoDescription,
		ShippingDate:      NewDate(p.ShippingDate),
		EstimatedDelivery: NewDate(p.EstimatedDelivery),
		ActualDelivery:    p.ActualDelivery,
		Updates:           updates,
	}
}
