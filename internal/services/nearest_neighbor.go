package services

import (
	"collection-route-service/internal/domain"
	"math"
)

// NearestNeighbor orders stops with a greedy nearest-neighbor heuristic.
//
// At each step it moves to the closest unvisited destination by
// great-circle distance. It does not attempt global route optimization;
// the result may be longer than the optimal tour.
type NearestNeighbor struct{}

func (NearestNeighbor) Name() string { return "nearest" }

// Order returns a permutation of dests indices in visiting order.
//
// Destinations are scanned in input order and only a strictly shorter
// distance replaces the current best, so equal distances resolve to the
// destination that appears first. Runs in O(n²).
func (NearestNeighbor) Order(origin domain.GeoPoint, dests []domain.GeoPoint) []int {
	n := len(dests)
	order := make([]int, 0, n)
	if n == 0 {
		return order
	}

	visited := make([]bool, n)
	current := origin

	for len(order) < n {
		best := -1
		minDist := math.Inf(1)

		// Select next stop by minimum distance (greedy step).
		for i, d := range dests {
			if visited[i] {
				continue
			}
			if dist := domain.Distance(current, d); best == -1 || dist < minDist {
				minDist = dist
				best = i
			}
		}

		visited[best] = true
		order = append(order, best)
		current = dests[best]
	}

	return order
}
