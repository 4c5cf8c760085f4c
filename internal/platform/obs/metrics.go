package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "collection_route"

// Metrics holds the Prometheus collectors for route planning and geocoding.
type Metrics struct {
	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,no_match,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,negative_hit,store_hit,miss,shared}
	GeocodeAPIDuration prometheus.Histogram

	// Planning metrics.
	Plans          *prometheus.CounterVec // labels: outcome={ready,partial,origin_unavailable,insufficient_destinations,error}
	PlanDuration   prometheus.Histogram
	DroppedReports prometheus.Counter
	RouteStops     prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.Plans,
		m.PlanDuration,
		m.DroppedReports,
		m.RouteStops,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "External geocoding lookups by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Route planning sessions by outcome.",
		}, []string{"outcome"}),
		PlanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "Duration of a complete route planning session.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DroppedReports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_reports_total",
			Help:      "Reports excluded from routes because their location could not be resolved.",
		}),
		RouteStops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_stops",
			Help:      "Number of stops per planned route.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
	}
}
