package cache

import (
	"collection-route-service/internal/domain"
	"collection-route-service/internal/platform/obs"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// SQLGeocodeStore is a SQL-backed store mapping normalized queries to points.
type SQLGeocodeStore struct {
	DB     *sql.DB
	Logger *slog.Logger
}

func NewSQLGeocodeStore(db *sql.DB, logger *slog.Logger) *SQLGeocodeStore {
	if logger == nil {
		logger = obs.DiscardLogger()
	}
	return &SQLGeocodeStore{DB: db, Logger: logger}
}

// Get fetches the stored point for query.
func (s *SQLGeocodeStore) Get(ctx context.Context, query string) (_ domain.GeoPoint, _ bool, err error) {
	defer obs.Time(ctx, s.Logger, "geocode.store.Get")(&err)

	if s.DB == nil {
		return domain.GeoPoint{}, false, errors.New("geocode store: db is nil")
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return domain.GeoPoint{}, false, nil
	}

	var lat, lng float64
	err = s.DB.QueryRowContext(ctx, `
	SELECT lat, lng
	FROM geocode_cache
	WHERE query = $1;
	`, query).Scan(&lat, &lng)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GeoPoint{}, false, nil
	}
	if err != nil {
		return domain.GeoPoint{}, false, fmt.Errorf("get geocode store: query geocode_cache table: %w", err)
	}

	return domain.GeoPoint{Lat: lat, Lng: lng}, true, nil
}

// Put stores query -> point, replacing any previous value.
func (s *SQLGeocodeStore) Put(ctx context.Context, query string, p domain.GeoPoint) (err error) {
	defer obs.Time(ctx, s.Logger, "geocode.store.Put")(&err)

	if s.DB == nil {
		return errors.New("geocode store: db is nil")
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return errors.New("insert geocode store: empty query key")
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("insert geocode store query=%q: %w", query, err)
	}

	if _, err := s.DB.ExecContext(ctx, `
	INSERT INTO geocode_cache (query, lat, lng)
	VALUES ($1, $2, $3)
	ON CONFLICT (query) DO UPDATE
	SET lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		updated_at = now();
	`, query, p.Lat, p.Lng); err != nil {
		return fmt.Errorf("insert geocode store query=%q: %w", query, err)
	}

	return nil
}
