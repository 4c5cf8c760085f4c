package ports

import (
	"collection-route-service/internal/domain"
	"context"
)

// Contract for translating a free-text place description into a point.
type Geocoder interface {
	// Return the best match for query, or an error wrapping domain.ErrNoMatch
	// when the service has no result.
	Geocode(ctx context.Context, query string) (domain.GeoPoint, error)
}

// Optional persistent store for successful geocode results.
// Keys are expected to be normalized by the caller.
type GeocodeStore interface {
	Get(ctx context.Context, key string) (domain.GeoPoint, bool, error)
	Put(ctx context.Context, key string, p domain.GeoPoint) error
}
