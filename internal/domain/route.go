package domain

import "strings"

const navigationBaseURL = "https://www.google.com/maps/dir/"

// Represents one straight-line hop of a collection route.
type RouteLeg struct {
	From       GeoPoint
	To         GeoPoint
	DistanceKm float64
}

// Represents the planned collection route for a single collector.
// A RouteResult is produced once per planning session and is not modified
// afterwards. Legs[0] runs from Origin to OrderedStops[0], and
// TotalDistanceKm is the sum of all leg distances.
// DroppedReportIDs lists reports excluded because their location could not be resolved.
type RouteResult struct {
	Origin           GeoPoint
	OrderedStops     []ResolvedReport
	Legs             []RouteLeg
	TotalDistanceKm  float64
	DroppedReportIDs []string
}

// Partial reports whether some reports were left out of the route.
func (r *RouteResult) Partial() bool {
	return len(r.DroppedReportIDs) > 0
}

// Waypoints returns the origin followed by every stop in visiting order.
func (r *RouteResult) Waypoints() []GeoPoint {
	out := make([]GeoPoint, 0, 1+len(r.OrderedStops))
	out = append(out, r.Origin)
	for _, s := range r.OrderedStops {
		out = append(out, s.Coordinates)
	}
	return out
}

// NavigationURL builds a turn-by-turn deep link: origin, then each stop.
func (r *RouteResult) NavigationURL() string {
	wps := r.Waypoints()
	parts := make([]string, 0, len(wps))
	for _, p := range wps {
		parts = append(parts, p.String())
	}
	return navigationBaseURL + strings.Join(parts, "/")
}
