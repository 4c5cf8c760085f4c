package services

import (
	"collection-route-service/internal/adapters/geocode"
	"collection-route-service/internal/domain"
	"collection-route-service/internal/platform/obs"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type originFunc func(ctx context.Context) (domain.GeoPoint, error)

func (f originFunc) Origin(ctx context.Context) (domain.GeoPoint, error) { return f(ctx) }

func fixedOrigin(p domain.GeoPoint) originFunc {
	return func(context.Context) (domain.GeoPoint, error) { return p, nil }
}

// spyOptimizer records whether it was asked to order anything.
type spyOptimizer struct {
	NearestNeighbor
	calls int
}

func (s *spyOptimizer) Order(origin domain.GeoPoint, dests []domain.GeoPoint) []int {
	s.calls++
	return s.NearestNeighbor.Order(origin, dests)
}

type brokenOptimizer struct{ NearestNeighbor }

func (brokenOptimizer) Order(domain.GeoPoint, []domain.GeoPoint) []int { return []int{0, 0} }

func newTestPlanner(places map[string]domain.GeoPoint, opt RouteOptimizer) (*RoutePlanner, *geocode.MockGeocoder, *obs.Metrics) {
	g := geocode.NewMockGeocoder(places)
	metrics := obs.NewMetricsForTesting()
	cache := NewGeocodeCache(g, GeocodeCacheOptions{Metrics: metrics})
	resolver := NewLocationResolver(cache, DefaultRegionSuffix, 4, nil)
	return NewRoutePlanner(resolver, opt, PlannerOptions{
		OriginTimeout: 50 * time.Millisecond,
		Metrics:       metrics,
	}), g, metrics
}

func TestPlan_OrdersStopsAndComputesLegs(t *testing.T) {
	planner, _, metrics := newTestPlanner(nil, nil)
	session := planner.NewSession(nil)

	res, err := session.Plan(context.Background(), domain.GeoPoint{Lat: 0, Lng: 0}, []domain.WasteReport{
		{ID: "A", Coordinates: pt(0, 1)},
		{ID: "B", Coordinates: pt(0, 5)},
		{ID: "C", Coordinates: pt(0, 2)},
	})
	require.NoError(t, err)

	ids := []string{}
	for _, s := range res.OrderedStops {
		ids = append(ids, s.Report.ID)
	}
	assert.Equal(t, []string{"A", "C", "B"}, ids)
	assert.InDelta(t, 555.97, res.TotalDistanceKm, 0.01)
	assert.Empty(t, res.DroppedReportIDs)
	assert.False(t, res.Partial())

	require.Len(t, res.Legs, 3)
	assert.Equal(t, res.Origin, res.Legs[0].From)
	sum := 0.0
	for i, leg := range res.Legs {
		assert.Equal(t, res.OrderedStops[i].Coordinates, leg.To)
		if i > 0 {
			assert.Equal(t, res.Legs[i-1].To, leg.From)
		}
		sum += leg.DistanceKm
	}
	assert.InDelta(t, res.TotalDistanceKm, sum, 1e-9)

	assert.Equal(t, StateReady, session.State())
	assert.Same(t, res, session.Result())
	assert.NoError(t, session.Err())
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.Plans.WithLabelValues("ready")), 1e-9)
}

func TestPlan_GeocodedStopFromBase(t *testing.T) {
	planner, _, _ := newTestPlanner(map[string]domain.GeoPoint{
		"Chuka Market, Tharaka Nithi County, Kenya": chukaMarket,
	}, nil)
	base := domain.GeoPoint{Lat: -0.3345, Lng: 37.6478}

	res, err := planner.NewSession(nil).Plan(context.Background(), base, []domain.WasteReport{
		{ID: "r1", LocationName: "Chuka Market"},
	})
	require.NoError(t, err)

	require.Len(t, res.OrderedStops, 1)
	assert.Equal(t, chukaMarket, res.OrderedStops[0].Coordinates)
	assert.InDelta(t, domain.Distance(base, chukaMarket), res.TotalDistanceKm, 1e-9)
	assert.Equal(t, "https://www.google.com/maps/dir/-0.3345,37.6478/-0.34,37.65", res.NavigationURL())
}

func TestPlan_PartialRoute(t *testing.T) {
	planner, _, metrics := newTestPlanner(nil, nil)

	res, err := planner.NewSession(nil).Plan(context.Background(), domain.GeoPoint{}, []domain.WasteReport{
		{ID: "ok", Coordinates: pt(0, 1)},
		{ID: "lost-2", LocationName: "Atlantis"},
		{ID: "lost-1", LocationName: "Lemuria"},
	})
	require.NoError(t, err)

	assert.True(t, res.Partial())
	assert.Equal(t, []string{"lost-1", "lost-2"}, res.DroppedReportIDs)
	require.Len(t, res.OrderedStops, 1)
	assert.Equal(t, "ok", res.OrderedStops[0].Report.ID)
	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.DroppedReports), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.Plans.WithLabelValues("partial")), 1e-9)
}

func TestPlan_InsufficientDestinationsSkipsOptimizer(t *testing.T) {
	spy := &spyOptimizer{}
	planner, _, _ := newTestPlanner(nil, spy)
	session := planner.NewSession(nil)

	_, err := session.Plan(context.Background(), domain.GeoPoint{}, []domain.WasteReport{
		{ID: "r1", LocationName: "Atlantis"},
		{ID: "r2"},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientDestinations)
	assert.Equal(t, 0, spy.calls)
	assert.Equal(t, StateFailed, session.State())
	assert.ErrorIs(t, session.Err(), domain.ErrInsufficientDestinations)
	assert.Nil(t, session.Result())

	_, err = planner.NewSession(nil).Plan(context.Background(), domain.GeoPoint{}, nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientDestinations)
}

func TestPlan_InvalidOrigin(t *testing.T) {
	planner, _, _ := newTestPlanner(nil, nil)

	session := planner.NewSession(nil)
	_, err := session.Plan(context.Background(), domain.GeoPoint{Lat: 91}, []domain.WasteReport{
		{ID: "r1", Coordinates: pt(0, 1)},
	})
	assert.ErrorIs(t, err, domain.ErrOriginUnavailable)
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)
	assert.Equal(t, []SessionState{StateIdle, StateAcquiringOrigin, StateFailed}, session.transitions())
}

func TestPlan_Transitions(t *testing.T) {
	planner, _, _ := newTestPlanner(nil, nil)

	session := planner.NewSession(nil)
	_, err := session.Plan(context.Background(), domain.GeoPoint{}, []domain.WasteReport{
		{ID: "r1", Coordinates: pt(0, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, []SessionState{
		StateIdle, StateAcquiringOrigin, StateResolvingLocations, StateOptimizing, StateReady,
	}, session.transitions())

	session = planner.NewSession(nil)
	_, err = session.Plan(context.Background(), domain.GeoPoint{}, []domain.WasteReport{
		{ID: "lost", LocationName: "Atlantis"},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientDestinations)
	assert.Equal(t, []SessionState{
		StateIdle, StateAcquiringOrigin, StateResolvingLocations, StateFailed,
	}, session.transitions())
}

func TestPlan_RejectsBadOptimizerOutput(t *testing.T) {
	planner, _, _ := newTestPlanner(nil, brokenOptimizer{})

	_, err := planner.NewSession(nil).Plan(context.Background(), domain.GeoPoint{}, []domain.WasteReport{
		{ID: "a", Coordinates: pt(0, 1)},
		{ID: "b", Coordinates: pt(0, 2)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "optimizer")
}

func TestSession_IsSingleShot(t *testing.T) {
	planner, _, _ := newTestPlanner(nil, nil)
	session := planner.NewSession(fixedOrigin(domain.GeoPoint{}))
	reports := []domain.WasteReport{{ID: "a", Coordinates: pt(0, 1)}}

	_, err := session.Plan(context.Background(), domain.GeoPoint{}, reports)
	require.NoError(t, err)

	_, err = session.Plan(context.Background(), domain.GeoPoint{}, reports)
	assert.ErrorIs(t, err, ErrSessionUsed)
	_, err = session.Run(context.Background(), reports)
	assert.ErrorIs(t, err, ErrSessionUsed)
	assert.Equal(t, StateReady, session.State())
}

func TestRun_UsesOriginProvider(t *testing.T) {
	planner, _, _ := newTestPlanner(nil, nil)
	origin := domain.GeoPoint{Lat: 0, Lng: 3}

	res, err := planner.NewSession(fixedOrigin(origin)).Run(context.Background(), []domain.WasteReport{
		{ID: "far", Coordinates: pt(0, 0)},
		{ID: "near", Coordinates: pt(0, 2)},
	})
	require.NoError(t, err)
	assert.Equal(t, origin, res.Origin)
	assert.Equal(t, "near", res.OrderedStops[0].Report.ID)
}

func TestRun_OriginFailures(t *testing.T) {
	reports := []domain.WasteReport{{ID: "a", Coordinates: pt(0, 1)}}

	cases := []struct {
		name   string
		origin originFunc
		want   domain.OriginFailureReason
	}{
		{
			name: "permission denied",
			origin: func(context.Context) (domain.GeoPoint, error) {
				return domain.GeoPoint{}, domain.NewOriginUnavailable(domain.OriginPermissionDenied, nil)
			},
			want: domain.OriginPermissionDenied,
		},
		{
			name: "sensor never answers",
			origin: func(ctx context.Context) (domain.GeoPoint, error) {
				<-ctx.Done()
				return domain.GeoPoint{}, ctx.Err()
			},
			want: domain.OriginTimeout,
		},
		{
			name: "sensor error",
			origin: func(context.Context) (domain.GeoPoint, error) {
				return domain.GeoPoint{}, errors.New("gps fix lost")
			},
			want: domain.OriginPositionUnavailable,
		},
		{
			name: "out of range reading",
			origin: func(context.Context) (domain.GeoPoint, error) {
				return domain.GeoPoint{Lat: math.NaN()}, nil
			},
			want: domain.OriginPositionUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			planner, g, metrics := newTestPlanner(nil, nil)
			session := planner.NewSession(tc.origin)

			_, err := session.Run(context.Background(), reports)

			var oe *domain.OriginUnavailableError
			require.ErrorAs(t, err, &oe)
			assert.Equal(t, tc.want, oe.Reason)
			assert.Equal(t, StateFailed, session.State())
			assert.Equal(t, 0, g.TotalCalls())
			assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.Plans.WithLabelValues("origin_unavailable")), 1e-9)
		})
	}
}

func TestRun_MissingProviderIsUnsupported(t *testing.T) {
	planner, _, _ := newTestPlanner(nil, nil)

	_, err := planner.NewSession(nil).Run(context.Background(), nil)

	var oe *domain.OriginUnavailableError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, domain.OriginUnsupported, oe.Reason)
}

func TestRun_CancelledDuringResolution(t *testing.T) {
	planner, g, _ := newTestPlanner(map[string]domain.GeoPoint{
		"Slow, Tharaka Nithi County, Kenya": chukaMarket,
	}, nil)
	g.Gate = make(chan struct{})
	defer close(g.Gate)

	ctx, cancel := context.WithCancel(context.Background())
	session := planner.NewSession(fixedOrigin(domain.GeoPoint{}))

	done := make(chan error, 1)
	go func() {
		_, err := session.Run(ctx, []domain.WasteReport{{ID: "r1", LocationName: "Slow"}})
		done <- err
	}()

	require.Eventually(t, func() bool { return session.State() == StateResolvingLocations }, time.Second, time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, StateFailed, session.State())
	assert.Nil(t, session.Result())
}

func TestSessionState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "resolving_locations", StateResolvingLocations.String())
	assert.Equal(t, "failed", StateFailed.String())
}
