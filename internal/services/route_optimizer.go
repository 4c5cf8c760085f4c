package services

import (
	"collection-route-service/internal/domain"

	"github.com/katalvlaran/lvlath/tsp"
)

// DefaultExhaustiveMaxStops bounds the exact solver; Held-Karp is O(n²·2ⁿ).
const DefaultExhaustiveMaxStops = 10

// RouteOptimizer decides the visiting order of a set of destinations.
type RouteOptimizer interface {
	// Return a permutation of the indices of dests. Implementations must
	// be deterministic for identical input.
	Order(origin domain.GeoPoint, dests []domain.GeoPoint) []int
	Name() string
}

// Optimize applies opt and returns dests in visiting order.
func Optimize(opt RouteOptimizer, origin domain.GeoPoint, dests []domain.GeoPoint) []domain.GeoPoint {
	order := opt.Order(origin, dests)
	out := make([]domain.GeoPoint, 0, len(order))
	for _, i := range order {
		out = append(out, dests[i])
	}
	return out
}

// Exhaustive finds the shortest open path from the origin through every
// destination. Inputs larger than MaxStops fall back to NearestNeighbor.
type Exhaustive struct {
	MaxStops int
}

func (Exhaustive) Name() string { return "exhaustive" }

func (e Exhaustive) Order(origin domain.GeoPoint, dests []domain.GeoPoint) []int {
	maxStops := e.MaxStops
	if maxStops <= 0 {
		maxStops = DefaultExhaustiveMaxStops
	}
	if len(dests) < 2 || len(dests) > maxStops {
		return NearestNeighbor{}.Order(origin, dests)
	}

	// Vertex 0 is the origin. Returning to it is free, so the optimal
	// cycle cost equals the optimal open path cost.
	points := append([]domain.GeoPoint{origin}, dests...)
	n := len(points)
	dist := make([][]float64, n)
	for i := range points {
		dist[i] = make([]float64, n)
		for j := range points {
			if i == j || j == 0 {
				continue
			}
			dist[i][j] = domain.Distance(points[i], points[j])
		}
	}

	res, err := tsp.TSPExact(dist)
	if err != nil || len(res.Tour) != n+1 {
		return NearestNeighbor{}.Order(origin, dests)
	}

	order := make([]int, 0, len(dests))
	for _, v := range res.Tour[1:n] {
		order = append(order, v-1)
	}
	return order
}
