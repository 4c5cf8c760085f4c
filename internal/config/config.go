package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Geocoder backends.
const (
	GeocoderNominatim = "nominatim"
	GeocoderORS       = "ors"
)

// Route ordering strategies.
const (
	StrategyNearest    = "nearest"
	StrategyExhaustive = "exhaustive"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Port            string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DatabaseURL string
	RedisAddr   string
	SeedPath    string

	// Geocoding.
	Geocoder           string
	GeocoderBaseURL    string
	GeocoderUserAgent  string
	GeocoderTimeout    time.Duration
	ORSAPIKey          string
	RegionSuffix       string
	GeocodeConcurrency int
	GeocodeCacheSize   int
	GeocodeCacheTTL    time.Duration
	GeocodeStoreTTL    time.Duration

	// Routing.
	RouteStrategy      string
	ExhaustiveMaxStops int

	// Origin acquisition.
	OriginTimeout time.Duration
	OriginMaxAge  time.Duration
	BaseLocation  *BaseLocation
}

// BaseLocation is the collector's default starting point.
type BaseLocation struct {
	Lat float64
	Lng float64
}

// Get returns the value of key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              Get("PORT", "8080"),
		LogLevel:          Get("LOG_LEVEL", "info"),
		LogFormat:         Get("LOG_FORMAT", "json"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		SeedPath:          Get("SEED_PATH", "data/seeds/reports.json"),
		Geocoder:          strings.ToLower(Get("GEOCODER", GeocoderNominatim)),
		GeocoderBaseURL:   os.Getenv("GEOCODER_BASE_URL"),
		GeocoderUserAgent: Get("GEOCODER_USER_AGENT", "collection-route-service/1.0"),
		ORSAPIKey:         os.Getenv("ORS_API_KEY"),
		RegionSuffix:      Get("GEOCODE_REGION_SUFFIX", "Tharaka Nithi County, Kenya"),
		RouteStrategy:     strings.ToLower(Get("ROUTE_STRATEGY", StrategyNearest)),
	}

	var err error
	if cfg.ShutdownTimeout, err = parseDuration("SHUTDOWN_TIMEOUT", "10s", false); err != nil {
		return nil, err
	}
	if cfg.GeocoderTimeout, err = parseDuration("GEOCODER_TIMEOUT", "10s", false); err != nil {
		return nil, err
	}
	if cfg.GeocodeCacheTTL, err = parseDuration("GEOCODE_CACHE_TTL", "0s", true); err != nil {
		return nil, err
	}
	if cfg.GeocodeStoreTTL, err = parseDuration("GEOCODE_STORE_TTL", "720h", true); err != nil {
		return nil, err
	}
	if cfg.OriginTimeout, err = parseDuration("ORIGIN_TIMEOUT", "10s", false); err != nil {
		return nil, err
	}
	if cfg.OriginMaxAge, err = parseDuration("ORIGIN_MAX_AGE", "60s", false); err != nil {
		return nil, err
	}

	if cfg.GeocodeConcurrency, err = parseInt("GEOCODE_CONCURRENCY", 4, 1); err != nil {
		return nil, err
	}
	if cfg.GeocodeCacheSize, err = parseInt("GEOCODE_CACHE_SIZE", 0, 0); err != nil {
		return nil, err
	}
	if cfg.ExhaustiveMaxStops, err = parseInt("EXHAUSTIVE_MAX_STOPS", 10, 1); err != nil {
		return nil, err
	}

	if cfg.BaseLocation, err = parseBaseLocation(); err != nil {
		return nil, err
	}

	switch cfg.Geocoder {
	case GeocoderNominatim:
	case GeocoderORS:
		if cfg.ORSAPIKey == "" {
			return nil, errors.New("GEOCODER is ors but ORS_API_KEY is not set")
		}
	default:
		return nil, fmt.Errorf("invalid GEOCODER %q", cfg.Geocoder)
	}

	switch cfg.RouteStrategy {
	case StrategyNearest, StrategyExhaustive:
	default:
		return nil, fmt.Errorf("invalid ROUTE_STRATEGY %q", cfg.RouteStrategy)
	}

	return cfg, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(Get(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def, min int) (int, error) {
	s := Get(key, "")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

// parseBaseLocation requires BASE_LAT and BASE_LNG together.
func parseBaseLocation() (*BaseLocation, error) {
	latStr, lngStr := Get("BASE_LAT", ""), Get("BASE_LNG", "")
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, errors.New("BASE_LAT and BASE_LNG must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, errors.New("invalid BASE_LAT")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, errors.New("invalid BASE_LNG")
	}
	return &BaseLocation{Lat: lat, Lng: lng}, nil
}
