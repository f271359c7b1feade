package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"

	"go.uber.org/zap"
)

// ErrNoMatch is returned when the geocoding service has no result for a
// location.
var ErrNoMatch = errors.New("geocode: no match")

const DefaultBaseURL = "https://api.openrouteservice.org"

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder resolves tracking locations (ports, cities, depots) with the
// OpenRouteService search API. Results are kept in a persistent cache so a
// location is looked up at most once.
//
// Safe for concurrent use.
type ORSGeocoder struct {
	client      *http.Client
	apiKey      string
	baseURL     string
	cache       ports.GeocodeCache
	maxAttempts int
	backoff     time.Duration
}

type Option func(*ORSGeocoder)

func WithBaseURL(u string) Option {
	return func(o *ORSGeocoder) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *ORSGeocoder) { o.client = c }
}

func WithBackoff(d time.Duration) Option {
	return func(o *ORSGeocoder) { o.backoff = d }
}

// WithMaxAttempts caps the tries per lookup. Values below 1 mean one try.
func WithMaxAttempts(n int) Option {
	return func(o *ORSGeocoder) { o.maxAttempts = max(n, 1) }
}

func NewORSGeocoder(apiKey string, cache ports.GeocodeCache, opts ...Option) (*ORSGeocoder, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	o := &ORSGeocoder{
		client:      &http.Client{Timeout: 10 * time.Second},
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		cache:       cache,
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// normalize collapses whitespace so cache keys are stable.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (o *ORSGeocoder) Geocode(ctx context.Context, location string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	key := normalize(location)
	if key == "" {
		return domain.Coordinates{}, errors.New("geocode: location must be non-empty")
	}

	if o.cache != nil {
		hit, err := o.cache.GetMany(ctx, []string{key})
		if err != nil {
			zap.L().Warn("geocode cache read failed", zap.String("location", key), zap.Error(err))
		} else if c, ok := hit[key]; ok {
			return c, nil
		}
	}

	c, err := o.search(ctx, key)
	if err != nil {
		return domain.Coordinates{}, err
	}

	if o.cache != nil {
		if err := o.cache.PutMany(ctx, map[string]domain.Coordinates{key: c}); err != nil {
			zap.L().Warn("geocode cache write failed", zap.String("location", key), zap.Error(err))
		}
	}
	return c, nil
}

func (o *ORSGeocoder) search(ctx context.Context, text string) (domain.Coordinates, error) {
	endpoint := o.baseURL + "/geocode/search"
	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, endpoint, map[string]string{"text": text, "size": "1"})
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", text, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: decode response: %w", text, err)
	}
	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", text, ErrNoMatch)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: invalid coordinate format", text)
	}
	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, nil
}
