// Package origin provides sources for a collector's starting point.
package origin

import (
	"collection-route-service/internal/domain"
	"collection-route-service/internal/ports"
	"context"
)

// Fixed always returns the same point, typically the collector's base.
type Fixed struct {
	Point domain.GeoPoint
}

func (f Fixed) Origin(context.Context) (domain.GeoPoint, error) {
	if err := f.Point.Validate(); err != nil {
		return domain.GeoPoint{}, domain.NewOriginUnavailable(domain.OriginPositionUnavailable, err)
	}
	return f.Point, nil
}

// Sensor replays what the collector's device reported: either a reading or
// the reason it could not produce one.
type Sensor struct {
	Reading *domain.GeoPoint
	Failure domain.OriginFailureReason
}

func (s Sensor) Origin(context.Context) (domain.GeoPoint, error) {
	if s.Failure != "" {
		return domain.GeoPoint{}, domain.NewOriginUnavailable(s.Failure, nil)
	}
	if s.Reading == nil {
		return domain.GeoPoint{}, domain.NewOriginUnavailable(domain.OriginUnsupported, nil)
	}
	if err := s.Reading.Validate(); err != nil {
		return domain.GeoPoint{}, domain.NewOriginUnavailable(domain.OriginPositionUnavailable, err)
	}
	return *s.Reading, nil
}

// Chain tries each provider in order and returns the first success.
// When all fail, the first provider's error is returned.
type Chain []ports.OriginProvider

func (c Chain) Origin(ctx context.Context) (domain.GeoPoint, error) {
	if len(c) == 0 {
		return domain.GeoPoint{}, domain.NewOriginUnavailable(domain.OriginUnsupported, nil)
	}

	var first error
	for _, p := range c {
		if p == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return domain.GeoPoint{}, err
		}

		pt, err := p.Origin(ctx)
		if err == nil {
			return pt, nil
		}
		if first == nil {
			first = err
		}
	}

	if first == nil {
		return domain.GeoPoint{}, domain.NewOriginUnavailable(domain.OriginUnsupported, nil)
	}
	return domain.GeoPoint{}, first
}
