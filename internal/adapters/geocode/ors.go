package geocode

import (
	"collection-route-service/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const orsBaseURL = "https://api.openrouteservice.org"

type orsGeocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORS implements ports.Geocoder using OpenRouteService (/geocode/search).
type ORS struct {
	client
	country string
}

// NewORS builds an OpenRouteService geocoder. country is an optional ISO
// code used as a search boundary.
func NewORS(apiKey, country string, opts Options) (*ORS, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	return &ORS{
		client: newClient(opts, orsBaseURL, map[string]string{
			"Authorization": apiKey,
			"User-Agent":    opts.UserAgent,
		}),
		country: country,
	}, nil
}

func (o *ORS) Geocode(ctx context.Context, query string) (domain.GeoPoint, error) {
	params := map[string]string{
		"text": query,
		"size": "1",
	}
	if o.country != "" {
		params["boundary.country"] = o.country
	}

	req, err := o.newRequest(ctx, "/geocode/search", params)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("ors geocode: %w", err)
	}

	resp, err := o.do(req)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("ors geocode %q: %w", query, err)
	}
	defer resp.Body.Close()

	var decoded orsGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("ors geocode: decode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("ors geocode %q: %w", query, domain.ErrNoMatch)
	}

	// ORS returns [lon, lat].
	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.GeoPoint{}, fmt.Errorf("ors geocode: invalid coordinate format for %q", query)
	}

	p, err := domain.NewGeoPoint(coords[1], coords[0])
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("ors geocode %q: %w", query, err)
	}
	return p, nil
}
