package api

import (
	"collection-route-service/internal/adapters/origin"
	"collection-route-service/internal/api/handlers"
	"collection-route-service/internal/domain"
	"collection-route-service/internal/platform/obs"
	"collection-route-service/internal/ports"
	"collection-route-service/internal/services"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Repo    ports.ReportRepository
	Planner *services.RoutePlanner
	Tracker *origin.Tracker
	Base    *domain.GeoPoint
	Logger  *slog.Logger
	// Metrics defaults to the Prometheus default registry handler.
	Metrics http.Handler
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	logger := d.Logger
	if logger == nil {
		logger = obs.DiscardLogger()
	}
	metrics := d.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	reportHandler := &handlers.ReportHandler{Repo: d.Repo}
	routeHandler := &handlers.RouteHandler{
		Repo:    d.Repo,
		Planner: d.Planner,
		Tracker: d.Tracker,
		Base:    d.Base,
	}
	locationHandler := &handlers.LocationHandler{Tracker: d.Tracker}

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", metrics)
	mux.HandleFunc("/reports", reportHandler.List)
	mux.HandleFunc("/reports/{id}/collect", reportHandler.Collect)
	mux.HandleFunc("/routes", routeHandler.Plan)
	mux.HandleFunc("/collectors/{id}/location", locationHandler.Record)

	return requestIDMiddleware(loggingMiddleware(logger, mux))
}
