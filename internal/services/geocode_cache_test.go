package services

import (
	"collection-route-service/internal/adapters/geocode"
	"collection-route-service/internal/domain"
	"collection-route-service/internal/platform/obs"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chukaMarket = domain.GeoPoint{Lat: -0.34, Lng: 37.65}

// memStore is an in-memory GeocodeStore.
type memStore struct {
	mu   sync.Mutex
	m    map[string]domain.GeoPoint
	gets int
}

func newMemStore() *memStore { return &memStore{m: map[string]domain.GeoPoint{}} }

func (s *memStore) Get(_ context.Context, key string) (domain.GeoPoint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	p, ok := s.m[key]
	return p, ok, nil
}

func (s *memStore) Put(_ context.Context, key string, p domain.GeoPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = p
	return nil
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "Chuka Market, Tharaka Nithi County, Kenya", NormalizeQuery("  Chuka   Market ", DefaultRegionSuffix))
	assert.Equal(t, "Chuka Market", NormalizeQuery("Chuka\tMarket", ""))
	assert.Equal(t, "", NormalizeQuery("   ", DefaultRegionSuffix))
}

func TestGeocodeCache_ConcurrentLookupsShareOneCall(t *testing.T) {
	g := geocode.NewMockGeocoder(map[string]domain.GeoPoint{"X": chukaMarket})
	g.Gate = make(chan struct{})
	metrics := obs.NewMetricsForTesting()
	c := NewGeocodeCache(g, GeocodeCacheOptions{Metrics: metrics})

	const callers = 20
	var wg sync.WaitGroup
	results := make([]domain.GeoPoint, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, found, err := c.Lookup(context.Background(), "X")
			assert.NoError(t, err)
			assert.True(t, found)
			results[i] = p
		}()
	}

	require.Eventually(t, func() bool { return g.Calls("X") == 1 }, time.Second, time.Millisecond)
	close(g.Gate)
	wg.Wait()

	assert.Equal(t, 1, g.Calls("X"))
	for _, p := range results {
		assert.Equal(t, chukaMarket, p)
	}

	// Later lookups are served from memory.
	_, _, err := c.Lookup(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, 1, g.Calls("X"))
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")), 1.0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")), 1e-9)
}

func TestGeocodeCache_NegativeResultsAreCached(t *testing.T) {
	g := geocode.NewMockGeocoder(nil)
	g.Fail("Broken", errors.New("connection reset"))
	c := NewGeocodeCache(g, GeocodeCacheOptions{})

	for i := 0; i < 3; i++ {
		_, found, err := c.Lookup(context.Background(), "Nowhere")
		require.NoError(t, err)
		assert.False(t, found)

		_, found, err = c.Lookup(context.Background(), "Broken")
		require.NoError(t, err)
		assert.False(t, found)
	}

	assert.Equal(t, 1, g.Calls("Nowhere"))
	assert.Equal(t, 1, g.Calls("Broken"))

	_, found, cached := c.Peek("Nowhere")
	assert.True(t, cached)
	assert.False(t, found)
}

func TestGeocodeCache_SizeBound(t *testing.T) {
	g := geocode.NewMockGeocoder(map[string]domain.GeoPoint{
		"A": {Lat: 1, Lng: 1},
		"B": {Lat: 2, Lng: 2},
	})
	c := NewGeocodeCache(g, GeocodeCacheOptions{Size: 1})

	_, _, err := c.Lookup(context.Background(), "A")
	require.NoError(t, err)
	_, _, err = c.Lookup(context.Background(), "B")
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
	_, _, cached := c.Peek("A")
	assert.False(t, cached, "oldest entry should be evicted")
}

func TestGeocodeCache_TTLExpiry(t *testing.T) {
	g := geocode.NewMockGeocoder(map[string]domain.GeoPoint{"A": {Lat: 1, Lng: 1}})
	c := NewGeocodeCache(g, GeocodeCacheOptions{TTL: 20 * time.Millisecond})

	_, _, err := c.Lookup(context.Background(), "A")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, _, err = c.Lookup(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 2, g.Calls("A"))
}

func TestGeocodeCache_StoreReadAndWriteThrough(t *testing.T) {
	store := newMemStore()
	store.m["Stored"] = domain.GeoPoint{Lat: 5, Lng: 5}

	g := geocode.NewMockGeocoder(map[string]domain.GeoPoint{"Fresh": chukaMarket})
	c := NewGeocodeCache(g, GeocodeCacheOptions{Store: store})

	p, found, err := c.Lookup(context.Background(), "Stored")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, domain.GeoPoint{Lat: 5, Lng: 5}, p)
	assert.Equal(t, 0, g.TotalCalls())

	_, _, err = c.Lookup(context.Background(), "Fresh")
	require.NoError(t, err)
	assert.Equal(t, chukaMarket, store.m["Fresh"])

	_, found, err = c.Lookup(context.Background(), "Missing")
	require.NoError(t, err)
	assert.False(t, found)
	_, stored := store.m["Missing"]
	assert.False(t, stored, "negative results must not reach the store")
}

func TestGeocodeCache_InvalidResultIsNegative(t *testing.T) {
	g := geocode.NewMockGeocoder(map[string]domain.GeoPoint{"Bad": {Lat: 123, Lng: 0}})
	c := NewGeocodeCache(g, GeocodeCacheOptions{})

	_, found, err := c.Lookup(context.Background(), "Bad")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGeocodeCache_CancelledCallerLeavesCacheConsistent(t *testing.T) {
	g := geocode.NewMockGeocoder(map[string]domain.GeoPoint{"Slow": chukaMarket})
	g.Gate = make(chan struct{})
	c := NewGeocodeCache(g, GeocodeCacheOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := c.Lookup(ctx, "Slow")
		done <- err
	}()

	require.Eventually(t, func() bool { return g.Calls("Slow") == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// The abandoned lookup still completes and fills the cache.
	close(g.Gate)
	require.Eventually(t, func() bool {
		_, found, cached := c.Peek("Slow")
		return cached && found
	}, time.Second, time.Millisecond)

	p, found, err := c.Lookup(context.Background(), "Slow")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, chukaMarket, p)
	assert.Equal(t, 1, g.Calls("Slow"))
}
