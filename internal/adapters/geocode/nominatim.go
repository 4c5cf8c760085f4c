package geocode

import (
	"collection-route-service/internal/domain"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Nominatim implements ports.Geocoder using the OpenStreetMap search API.
//
// The public instance requires an identifying User-Agent and allows about
// one request per second, so callers should keep concurrency low.
type Nominatim struct {
	client
}

func NewNominatim(opts Options) *Nominatim {
	return &Nominatim{
		client: newClient(opts, nominatimBaseURL, map[string]string{"User-Agent": opts.UserAgent}),
	}
}

// Geocode resolves query to the best match. A response with no places
// yields domain.ErrNoMatch.
func (n *Nominatim) Geocode(ctx context.Context, query string) (domain.GeoPoint, error) {
	req, err := n.newRequest(ctx, "/search", map[string]string{
		"format": "json",
		"q":      query,
		"limit":  "1",
	})
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("nominatim geocode: %w", err)
	}

	resp, err := n.do(req)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("nominatim geocode %q: %w", query, err)
	}
	defer resp.Body.Close()

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("nominatim geocode: decode response: %w", err)
	}

	if len(places) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("nominatim geocode %q: %w", query, domain.ErrNoMatch)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("nominatim geocode: invalid lat %q: %w", places[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("nominatim geocode: invalid lon %q: %w", places[0].Lon, err)
	}

	p, err := domain.NewGeoPoint(lat, lng)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("nominatim geocode %q: %w", query, err)
	}
	return p, nil
}
