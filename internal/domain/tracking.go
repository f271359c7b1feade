package domain

import (
	"strings"
	"time"
)

// Coordinates are a geocoded point (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// TrackingUpdate is one event in a shipment's journey.
type TrackingUpdate struct {
	ID          string
	ShipmentID  string
	Status      ShipmentStatus
	Location    string
	Description string
	Latitude    *float64
	Longitude   *float64
	OccurredAt  time.Time
	CreatedBy   string
	CreatedAt   time.Time

	// Set on cross-shipment listings.
	TrackingNumber string
}

func (u *TrackingUpdate) Normalize() {
	u.Location = strings.Join(strings.Fields(u.Location), " ")
	u.Description = strings.TrimSpace(u.Description)
}

func (u *TrackingUpdate) Validate() error {
	v := &ValidationError{}
	if !u.Status.Valid() {
		v.Add("status", "is not a known shipment status")
	}
	requireText(v, "location", u.Location)
	return v.Err()
}

func (u *TrackingUpdate) SetCoordinates(c Coordinates) {
	lat, lon := c.Lat, c.Lon
	u.Latitude = &lat
	u.Longitude = &lon
}

// PublicTracking is what anonymous tracking lookups may see.
type PublicTracking struct {
	TrackingNumber    string
	Status            ShipmentStatus
	Origin            string
	Destination       string
	CargoDescription  string
	ShippingDate      *time.Time
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time
	Updates           []TrackingUpdate
}
