package main

import (
	"collection-route-service/internal/adapters/cache"
	"collection-route-service/internal/adapters/geocode"
	"collection-route-service/internal/adapters/origin"
	"collection-route-service/internal/adapters/repositories"
	"collection-route-service/internal/api"
	"collection-route-service/internal/config"
	"collection-route-service/internal/domain"
	"collection-route-service/internal/platform/db"
	"collection-route-service/internal/platform/obs"
	"collection-route-service/internal/ports"
	"collection-route-service/internal/services"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (PostgreSQL, Redis, geocoder) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := obs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := repositories.InitSchema(database); err != nil {
		return err
	}

	metrics := obs.NewMetrics()

	geocoder, err := newGeocoder(cfg)
	if err != nil {
		return err
	}

	store, closeStore := newGeocodeStore(cfg, database, logger)
	defer closeStore()

	geocodeCache := services.NewGeocodeCache(geocoder, services.GeocodeCacheOptions{
		Size:    cfg.GeocodeCacheSize,
		TTL:     cfg.GeocodeCacheTTL,
		Store:   store,
		Metrics: metrics,
		Logger:  logger,
	})
	resolver := services.NewLocationResolver(geocodeCache, cfg.RegionSuffix, cfg.GeocodeConcurrency, logger)

	var optimizer services.RouteOptimizer = services.NearestNeighbor{}
	if cfg.RouteStrategy == config.StrategyExhaustive {
		optimizer = services.Exhaustive{MaxStops: cfg.ExhaustiveMaxStops}
	}

	planner := services.NewRoutePlanner(resolver, optimizer, services.PlannerOptions{
		OriginTimeout: cfg.OriginTimeout,
		Metrics:       metrics,
		Logger:        logger,
	})

	var base *domain.GeoPoint
	if cfg.BaseLocation != nil {
		base = &domain.GeoPoint{Lat: cfg.BaseLocation.Lat, Lng: cfg.BaseLocation.Lng}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := origin.NewTracker(clockwork.NewRealClock(), cfg.OriginMaxAge)
	go tracker.PruneEvery(ctx, cfg.OriginMaxAge)

	router := api.NewRouter(api.Deps{
		Repo:    repositories.NewPostgresReportRepository(database),
		Planner: planner,
		Tracker: tracker,
		Base:    base,
		Logger:  logger,
	})

	// Timeouts are tuned for cold-cache route planning (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "geocoder", cfg.Geocoder, "strategy", optimizer.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newGeocoder(cfg *config.Config) (ports.Geocoder, error) {
	opts := geocode.Options{
		BaseURL:   cfg.GeocoderBaseURL,
		UserAgent: cfg.GeocoderUserAgent,
		Timeout:   cfg.GeocoderTimeout,
	}

	switch cfg.Geocoder {
	case config.GeocoderORS:
		return geocode.NewORS(cfg.ORSAPIKey, "KE", opts)
	default:
		return geocode.NewNominatim(opts), nil
	}
}

// newGeocodeStore prefers Redis when configured, otherwise the SQL table.
func newGeocodeStore(cfg *config.Config, database *sql.DB, logger *slog.Logger) (ports.GeocodeStore, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return cache.NewRedisGeocodeStore(client, cfg.GeocodeStoreTTL), func() { _ = client.Close() }
	}
	return cache.NewSQLGeocodeStore(database, logger), func() {}
}
