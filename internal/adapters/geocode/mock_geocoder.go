package geocode

import (
	"collection-route-service/internal/domain"
	"context"
	"fmt"
	"sync"
)

// MockGeocoder answers from a fixed table and counts calls per query.
// Queries missing from the table yield domain.ErrNoMatch; queries listed in
// Failures yield that error instead.
type MockGeocoder struct {
	mu       sync.Mutex
	places   map[string]domain.GeoPoint
	failures map[string]error
	calls    map[string]int

	// Gate, when set, blocks every call until it is closed or ctx ends.
	Gate chan struct{}
}

func NewMockGeocoder(places map[string]domain.GeoPoint) *MockGeocoder {
	return &MockGeocoder{
		places:   places,
		failures: map[string]error{},
		calls:    map[string]int{},
	}
}

// Fail makes lookups of query return err.
func (m *MockGeocoder) Fail(query string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[query] = err
}

func (m *MockGeocoder) Geocode(ctx context.Context, query string) (domain.GeoPoint, error) {
	m.mu.Lock()
	m.calls[query]++
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.GeoPoint{}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failures[query]; ok {
		return domain.GeoPoint{}, err
	}
	p, ok := m.places[query]
	if !ok {
		return domain.GeoPoint{}, fmt.Errorf("mock geocode %q: %w", query, domain.ErrNoMatch)
	}
	return p, nil
}

// Calls returns how many times query was looked up.
func (m *MockGeocoder) Calls(query string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[query]
}

// TotalCalls returns the number of lookups across all queries.
func (m *MockGeocoder) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}
