package geocode

import (
	"context"
	"fmt"
	"strings"

	"cargo-logistics-service/internal/domain"
)

// StaticGeocoder resolves locations from a fixed table. It stands in for the
// remote service in tests and offline development.
type StaticGeocoder struct {
	m map[string]domain.Coordinates
}

func NewStaticGeocoder(points map[string]domain.Coordinates) *StaticGeocoder {
	m := make(map[string]domain.Coordinates, len(points))
	for k, v := range points {
		m[strings.ToLower(normalize(k))] = v
	}
	return &StaticGeocoder{m: m}
}

func (g *StaticGeocoder) Geocode(ctx context.Context, location string) (domain.Coordinates, error) {
	c, ok := g.m[strings.ToLower(normalize(location))]
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", location, ErrNoMatch)
	}
	return c, nil
}
