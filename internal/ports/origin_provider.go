package ports

import (
	"collection-route-service/internal/domain"
	"context"
)

// Source of the collector's starting point.
type OriginProvider interface {
	// Return the origin, or a *domain.OriginUnavailableError.
	Origin(ctx context.Context) (domain.GeoPoint, error)
}
