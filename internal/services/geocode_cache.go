package services

import (
	"collection-route-service/internal/domain"
	"collection-route-service/internal/platform/obs"
	"collection-route-service/internal/ports"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// DefaultRegionSuffix is appended to location names before geocoding.
const DefaultRegionSuffix = "Tharaka Nithi County, Kenya"

type geocodeEntry struct {
	point domain.GeoPoint
	found bool
}

// GeocodeCacheOptions configures a GeocodeCache. Zero values disable the
// corresponding feature: Size 0 is unbounded, TTL 0 never expires.
type GeocodeCacheOptions struct {
	Size    int
	TTL     time.Duration
	Store   ports.GeocodeStore
	Metrics *obs.Metrics
	Logger  *slog.Logger
}

// GeocodeCache is a process-wide query-to-point cache in front of a Geocoder.
//
// Concurrent lookups of the same key share a single external call. Both
// matches and misses are cached; misses are only held in memory so a
// transient outage is not persisted to the store.
type GeocodeCache struct {
	geocoder ports.Geocoder
	store    ports.GeocodeStore
	entries  *expirable.LRU[string, geocodeEntry]
	group    singleflight.Group
	metrics  *obs.Metrics
	logger   *slog.Logger
}

func NewGeocodeCache(geocoder ports.Geocoder, opts GeocodeCacheOptions) *GeocodeCache {
	logger := opts.Logger
	if logger == nil {
		logger = obs.DiscardLogger()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = obs.NewMetricsForTesting()
	}
	size := opts.Size
	if size < 0 {
		size = 0
	}

	return &GeocodeCache{
		geocoder: geocoder,
		store:    opts.Store,
		entries:  expirable.NewLRU[string, geocodeEntry](size, nil, opts.TTL),
		metrics:  metrics,
		logger:   logger,
	}
}

// NormalizeQuery builds the cache key for a location name: inner whitespace
// is collapsed and the region suffix appended. Blank names yield "".
func NormalizeQuery(name, regionSuffix string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	if regionSuffix == "" {
		return name
	}
	return name + ", " + regionSuffix
}

// Lookup returns the point for key and whether a match exists.
//
// The only error is ctx's. An abandoned lookup keeps running and still
// populates the cache for later callers.
func (c *GeocodeCache) Lookup(ctx context.Context, key string) (domain.GeoPoint, bool, error) {
	if e, ok := c.entries.Get(key); ok {
		if e.found {
			c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		} else {
			c.metrics.GeocodeCache.WithLabelValues("negative_hit").Inc()
		}
		return e.point, e.found, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fill(detached, key), nil
	})

	select {
	case <-ctx.Done():
		return domain.GeoPoint{}, false, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.metrics.GeocodeCache.WithLabelValues("shared").Inc()
		}
		e := res.Val.(geocodeEntry)
		return e.point, e.found, nil
	}
}

// Peek reports the cached entry for key without triggering a lookup.
func (c *GeocodeCache) Peek(key string) (point domain.GeoPoint, found, cached bool) {
	e, ok := c.entries.Peek(key)
	return e.point, e.found, ok
}

// Len returns the number of resident entries.
func (c *GeocodeCache) Len() int {
	return c.entries.Len()
}

// fill runs at most once per key at a time. The entry is written before
// the flight ends, so a later flight for the same key sees it.
func (c *GeocodeCache) fill(ctx context.Context, key string) geocodeEntry {
	if e, ok := c.entries.Get(key); ok {
		return e
	}

	if c.store != nil {
		p, ok, err := c.store.Get(ctx, key)
		if err != nil {
			c.logger.Warn("geocode store read failed", "query", key, "error", err)
		} else if ok {
			c.metrics.GeocodeCache.WithLabelValues("store_hit").Inc()
			e := geocodeEntry{point: p, found: true}
			c.entries.Add(key, e)
			return e
		}
	}

	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	start := time.Now()
	p, err := c.geocoder.Geocode(ctx, key)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		err = p.Validate()
	}

	var e geocodeEntry
	switch {
	case err == nil:
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
		e = geocodeEntry{point: p, found: true}
		if c.store != nil {
			if perr := c.store.Put(ctx, key, p); perr != nil {
				c.logger.Warn("geocode store write failed", "query", key, "error", perr)
			}
		}
	case errors.Is(err, domain.ErrNoMatch):
		c.metrics.GeocodeRequests.WithLabelValues("no_match").Inc()
		c.logger.Info("geocode found no match", "query", key)
	default:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		c.logger.Warn("geocode lookup failed", "query", key, "error", err)
	}

	c.entries.Add(key, e)
	return e
}
