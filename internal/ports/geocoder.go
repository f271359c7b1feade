package ports

import (
	"context"

	"cargo-logistics-service/internal/domain"
)

// Contract for resolving a free-text location to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (domain.Coordinates, error)
}

// Contract for a persistent address to coordinate cache.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
