package services

import (
	"collection-route-service/internal/platform/obs"
	"collection-route-service/internal/ports"
	"log/slog"
	"time"
)

// DefaultOriginTimeout bounds origin acquisition in RoutePlanningSession.Run.
const DefaultOriginTimeout = 10 * time.Second

// PlannerOptions configures a RoutePlanner. Zero values select defaults.
type PlannerOptions struct {
	OriginTimeout time.Duration
	Metrics       *obs.Metrics
	Logger        *slog.Logger
}

// RoutePlanner is the long-lived owner of the shared resolver and optimizer.
// Each planning request gets its own session.
type RoutePlanner struct {
	resolver      *LocationResolver
	optimizer     RouteOptimizer
	originTimeout time.Duration
	metrics       *obs.Metrics
	logger        *slog.Logger
}

func NewRoutePlanner(resolver *LocationResolver, optimizer RouteOptimizer, opts PlannerOptions) *RoutePlanner {
	if optimizer == nil {
		optimizer = NearestNeighbor{}
	}
	if opts.OriginTimeout <= 0 {
		opts.OriginTimeout = DefaultOriginTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = obs.NewMetricsForTesting()
	}
	if opts.Logger == nil {
		opts.Logger = obs.DiscardLogger()
	}

	return &RoutePlanner{
		resolver:      resolver,
		optimizer:     optimizer,
		originTimeout: opts.OriginTimeout,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
	}
}

// NewSession starts a fresh planning session. origin may be nil when the
// caller supplies the origin to Plan directly.
func (p *RoutePlanner) NewSession(origin ports.OriginProvider) *RoutePlanningSession {
	return &RoutePlanningSession{
		planner: p,
		origin:  origin,
		state:   StateIdle,
	}
}
