package services

import (
	"collection-route-service/internal/domain"
	"collection-route-service/internal/platform/obs"
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"
)

// DefaultGeocodeConcurrency bounds parallel geocode lookups per Resolve call.
const DefaultGeocodeConcurrency = 4

// LocationResolver gives every report definite coordinates, geocoding the
// location name of reports that lack them.
type LocationResolver struct {
	cache        *GeocodeCache
	regionSuffix string
	concurrency  int
	logger       *slog.Logger
}

func NewLocationResolver(cache *GeocodeCache, regionSuffix string, concurrency int, logger *slog.Logger) *LocationResolver {
	if concurrency <= 0 {
		concurrency = DefaultGeocodeConcurrency
	}
	if logger == nil {
		logger = obs.DiscardLogger()
	}
	return &LocationResolver{
		cache:        cache,
		regionSuffix: regionSuffix,
		concurrency:  concurrency,
		logger:       logger,
	}
}

// Resolve returns the reports that have coordinates, in input order, and the
// sorted ids of reports that could not be located.
//
// Geocoding failures never fail the call; the affected report is dropped.
// The returned error is non-nil only when ctx ends first.
func (r *LocationResolver) Resolve(
	ctx context.Context,
	reports []domain.WasteReport,
) (_ []domain.ResolvedReport, _ []string, err error) {
	defer obs.Time(ctx, r.logger, "resolver.Resolve")(&err)

	type slot struct {
		point    domain.GeoPoint
		ok       bool
		geocoded bool
	}
	slots := make([]slot, len(reports))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, rep := range reports {
		if rep.HasValidCoordinates() {
			slots[i] = slot{point: *rep.Coordinates, ok: true}
			continue
		}

		key := NormalizeQuery(rep.LocationName, r.regionSuffix)
		if key == "" {
			r.logger.Warn("report has no coordinates or location name", "report_id", rep.ID)
			continue
		}

		g.Go(func() error {
			p, found, err := r.cache.Lookup(gctx, key)
			if err != nil {
				return err
			}
			if found {
				slots[i] = slot{point: p, ok: true, geocoded: true}
			} else {
				r.logger.Warn("could not locate report", "report_id", rep.ID, "query", key)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("resolve locations: %w", err)
	}
	// A lookup may have returned before ctx ended while a later one was never started.
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("resolve locations: %w", err)
	}

	resolved := make([]domain.ResolvedReport, 0, len(reports))
	located := map[string]struct{}{}
	for i, rep := range reports {
		if slots[i].ok {
			resolved = append(resolved, domain.ResolvedReport{
				Report:      rep,
				Coordinates: slots[i].point,
				Geocoded:    slots[i].geocoded,
			})
			located[rep.ID] = struct{}{}
		}
	}

	// An id is dropped only if no report carrying it was located.
	dropped := []string{}
	seen := map[string]struct{}{}
	for i, rep := range reports {
		if slots[i].ok {
			continue
		}
		if _, ok := located[rep.ID]; ok {
			continue
		}
		if _, ok := seen[rep.ID]; ok {
			continue
		}
		seen[rep.ID] = struct{}{}
		dropped = append(dropped, rep.ID)
	}
	sort.Strings(dropped)

	return resolved, dropped, nil
}
