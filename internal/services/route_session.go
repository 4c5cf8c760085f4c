package services

import (
	"collection-route-service/internal/domain"
	"collection-route-service/internal/platform/obs"
	"collection-route-service/internal/ports"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrSessionUsed is returned when Plan or Run is called on a session that has already started.
var ErrSessionUsed = errors.New("route planning session already used")

type SessionState int

const (
	StateIdle SessionState = iota
	StateAcquiringOrigin
	StateResolvingLocations
	StateOptimizing
	StateReady
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiringOrigin:
		return "acquiring_origin"
	case StateResolvingLocations:
		return "resolving_locations"
	case StateOptimizing:
		return "optimizing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// RoutePlanningSession plans one route for one collector.
//
// A session is single-shot: it moves forward from Idle to either Ready or
// Failed and never restarts. State, Result and Err may be read from other
// goroutines while the session runs.
type RoutePlanningSession struct {
	planner *RoutePlanner
	origin  ports.OriginProvider

	mu      sync.Mutex
	started bool
	state   SessionState
	trail   []SessionState
	result  *domain.RouteResult
	err     error
}

func (s *RoutePlanningSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the route once the session is Ready, nil otherwise.
func (s *RoutePlanningSession) Result() *domain.RouteResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Err returns the failure once the session is Failed, nil otherwise.
func (s *RoutePlanningSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Run acquires the origin from the session's provider and plans the route.
func (s *RoutePlanningSession) Run(ctx context.Context, reports []domain.WasteReport) (*domain.RouteResult, error) {
	if !s.begin(StateAcquiringOrigin) {
		return nil, ErrSessionUsed
	}
	start := time.Now()

	origin, err := s.acquireOrigin(ctx)
	if err != nil {
		return nil, s.fail(start, err)
	}
	return s.plan(ctx, start, origin, reports)
}

// Plan orders reports starting from a known origin.
//
// It fails with domain.ErrInsufficientDestinations when no report could be
// located; reports that could not be located are otherwise listed in the
// result's DroppedReportIDs.
func (s *RoutePlanningSession) Plan(
	ctx context.Context,
	origin domain.GeoPoint,
	reports []domain.WasteReport,
) (*domain.RouteResult, error) {
	if !s.begin(StateAcquiringOrigin) {
		return nil, ErrSessionUsed
	}
	start := time.Now()

	if err := origin.Validate(); err != nil {
		return nil, s.fail(start, domain.NewOriginUnavailable(domain.OriginPositionUnavailable, err))
	}
	return s.plan(ctx, start, origin, reports)
}

func (s *RoutePlanningSession) acquireOrigin(ctx context.Context) (domain.GeoPoint, error) {
	if s.origin == nil {
		return domain.GeoPoint{}, domain.NewOriginUnavailable(domain.OriginUnsupported, nil)
	}

	octx, cancel := context.WithTimeout(ctx, s.planner.originTimeout)
	defer cancel()

	p, err := s.origin.Origin(octx)
	if err != nil {
		if ctx.Err() != nil {
			return domain.GeoPoint{}, ctx.Err()
		}
		var oe *domain.OriginUnavailableError
		if errors.As(err, &oe) {
			return domain.GeoPoint{}, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.GeoPoint{}, domain.NewOriginUnavailable(domain.OriginTimeout, err)
		}
		return domain.GeoPoint{}, domain.NewOriginUnavailable(domain.OriginPositionUnavailable, err)
	}
	if err := p.Validate(); err != nil {
		return domain.GeoPoint{}, domain.NewOriginUnavailable(domain.OriginPositionUnavailable, err)
	}
	return p, nil
}

func (s *RoutePlanningSession) plan(
	ctx context.Context,
	start time.Time,
	origin domain.GeoPoint,
	reports []domain.WasteReport,
) (_ *domain.RouteResult, err error) {
	defer obs.Time(ctx, s.planner.logger, "session.plan")(&err)

	s.setState(StateResolvingLocations)
	resolved, dropped, err := s.planner.resolver.Resolve(ctx, reports)
	if err != nil {
		return nil, s.fail(start, err)
	}
	if len(resolved) == 0 {
		s.planner.metrics.DroppedReports.Add(float64(len(dropped)))
		return nil, s.fail(start, fmt.Errorf("plan route: %d reports, none located: %w", len(reports), domain.ErrInsufficientDestinations))
	}

	s.setState(StateOptimizing)
	points := make([]domain.GeoPoint, len(resolved))
	for i, r := range resolved {
		points[i] = r.Coordinates
	}

	order := s.planner.optimizer.Order(origin, points)
	if err := checkPermutation(order, len(points)); err != nil {
		return nil, s.fail(start, fmt.Errorf("plan route: optimizer %s: %w", s.planner.optimizer.Name(), err))
	}

	stops := make([]domain.ResolvedReport, 0, len(order))
	legs := make([]domain.RouteLeg, 0, len(order))
	total := 0.0
	current := origin
	for _, i := range order {
		next := resolved[i]
		d := domain.Distance(current, next.Coordinates)
		legs = append(legs, domain.RouteLeg{From: current, To: next.Coordinates, DistanceKm: d})
		stops = append(stops, next)
		total += d
		current = next.Coordinates
	}

	result := &domain.RouteResult{
		Origin:           origin,
		OrderedStops:     stops,
		Legs:             legs,
		TotalDistanceKm:  total,
		DroppedReportIDs: dropped,
	}

	outcome := "ready"
	if result.Partial() {
		outcome = "partial"
		s.planner.logger.Warn("route planned without some reports", "dropped", dropped)
	}
	m := s.planner.metrics
	m.Plans.WithLabelValues(outcome).Inc()
	m.PlanDuration.Observe(time.Since(start).Seconds())
	m.DroppedReports.Add(float64(len(dropped)))
	m.RouteStops.Observe(float64(len(stops)))

	s.planner.logger.Info("route planned",
		"strategy", s.planner.optimizer.Name(),
		"stops", len(stops),
		"dropped", len(dropped),
		"total_km", total,
	)

	s.mu.Lock()
	s.enter(StateReady)
	s.result = result
	s.mu.Unlock()

	return result, nil
}

func (s *RoutePlanningSession) begin(next SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return false
	}
	s.started = true
	s.enter(next)
	return true
}

func (s *RoutePlanningSession) setState(st SessionState) {
	s.mu.Lock()
	s.enter(st)
	s.mu.Unlock()
}

// enter records a transition; s.mu must be held.
func (s *RoutePlanningSession) enter(st SessionState) {
	if s.state == st {
		return
	}
	s.state = st
	s.trail = append(s.trail, st)
}

// transitions returns the states entered so far, starting from Idle.
func (s *RoutePlanningSession) transitions() []SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SessionState{StateIdle}, s.trail...)
}

func (s *RoutePlanningSession) fail(start time.Time, err error) error {
	s.mu.Lock()
	s.enter(StateFailed)
	s.err = err
	s.mu.Unlock()

	s.planner.metrics.Plans.WithLabelValues(outcomeLabel(err)).Inc()
	s.planner.metrics.PlanDuration.Observe(time.Since(start).Seconds())
	return err
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrOriginUnavailable):
		return "origin_unavailable"
	case errors.Is(err, domain.ErrInsufficientDestinations):
		return "insufficient_destinations"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func checkPermutation(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("returned %d indices for %d destinations", len(order), n)
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return fmt.Errorf("invalid index %d in order %v", i, order)
		}
		seen[i] = true
	}
	return nil
}
