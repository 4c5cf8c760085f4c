package origin

import (
	"collection-route-service/internal/domain"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultMaxAge is how long a recorded reading stays usable as an origin.
const DefaultMaxAge = 60 * time.Second

var errNoRecentReading = errors.New("no recent location reading")

type reading struct {
	point domain.GeoPoint
	at    time.Time
}

// Tracker keeps the most recent location reported by each collector.
// It is safe for concurrent use.
type Tracker struct {
	clock  clockwork.Clock
	maxAge time.Duration

	mu       sync.RWMutex
	readings map[string]reading
}

func NewTracker(clock clockwork.Clock, maxAge time.Duration) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Tracker{
		clock:    clock,
		maxAge:   maxAge,
		readings: make(map[string]reading),
	}
}

// Record stores p as the collector's latest position.
func (t *Tracker) Record(collectorID string, p domain.GeoPoint) error {
	if collectorID == "" {
		return errors.New("record location: collector id is empty")
	}
	if err := p.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.readings[collectorID] = reading{point: p, at: t.clock.Now()}
	return nil
}

// Latest returns the collector's last reading if it is not older than the max age.
func (t *Tracker) Latest(collectorID string) (domain.GeoPoint, time.Time, bool) {
	t.mu.RLock()
	r, ok := t.readings[collectorID]
	t.mu.RUnlock()

	if !ok || t.clock.Since(r.at) > t.maxAge {
		return domain.GeoPoint{}, time.Time{}, false
	}
	return r.point, r.at, true
}

// Prune drops readings older than the max age and returns how many were removed.
func (t *Tracker) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for id, r := range t.readings {
		if t.clock.Since(r.at) > t.maxAge {
			delete(t.readings, id)
			n++
		}
	}
	return n
}

// PruneEvery prunes stale readings on each tick of interval until ctx ends.
func (t *Tracker) PruneEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = t.maxAge
	}
	ticker := t.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.Prune()
		}
	}
}

// LastKnown returns an OriginProvider backed by the collector's recent reading.
func (t *Tracker) LastKnown(collectorID string) LastKnown {
	return LastKnown{tracker: t, collectorID: collectorID}
}

type LastKnown struct {
	tracker     *Tracker
	collectorID string
}

func (l LastKnown) Origin(context.Context) (domain.GeoPoint, error) {
	p, _, ok := l.tracker.Latest(l.collectorID)
	if !ok {
		return domain.GeoPoint{}, domain.NewOriginUnavailable(domain.OriginPositionUnavailable, errNoRecentReading)
	}
	return p, nil
}
