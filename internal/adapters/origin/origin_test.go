package origin

import (
	"collection-route-service/internal/domain"
	"collection-route-service/internal/ports"
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	chukaBase = domain.GeoPoint{Lat: -0.3345, Lng: 37.6478}
	reading1  = domain.GeoPoint{Lat: -0.34, Lng: 37.65}
)

func reasonOf(t *testing.T, err error) domain.OriginFailureReason {
	t.Helper()
	var oe *domain.OriginUnavailableError
	require.ErrorAs(t, err, &oe)
	return oe.Reason
}

func TestFixed(t *testing.T) {
	p, err := Fixed{Point: chukaBase}.Origin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, chukaBase, p)

	_, err = Fixed{Point: domain.GeoPoint{Lat: 100}}.Origin(context.Background())
	assert.Equal(t, domain.OriginPositionUnavailable, reasonOf(t, err))
}

func TestSensor(t *testing.T) {
	p, err := Sensor{Reading: &reading1}.Origin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reading1, p)

	_, err = Sensor{Failure: domain.OriginPermissionDenied}.Origin(context.Background())
	assert.Equal(t, domain.OriginPermissionDenied, reasonOf(t, err))

	_, err = Sensor{}.Origin(context.Background())
	assert.Equal(t, domain.OriginUnsupported, reasonOf(t, err))
}

func TestTracker_Staleness(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	tr := NewTracker(clock, time.Minute)

	require.NoError(t, tr.Record("c1", reading1))

	p, at, ok := tr.Latest("c1")
	require.True(t, ok)
	assert.Equal(t, reading1, p)
	assert.Equal(t, clock.Now(), at)

	clock.Advance(59 * time.Second)
	got, err := tr.LastKnown("c1").Origin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reading1, got)

	clock.Advance(2 * time.Second)
	_, err = tr.LastKnown("c1").Origin(context.Background())
	assert.Equal(t, domain.OriginPositionUnavailable, reasonOf(t, err))

	assert.Equal(t, 1, tr.Prune())
	_, _, ok = tr.Latest("c1")
	assert.False(t, ok)
}

func TestTracker_PruneEvery(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tr := NewTracker(clock, time.Minute)
	require.NoError(t, tr.Record("c1", reading1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.PruneEvery(ctx, 30*time.Second)
		close(done)
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	clock.Advance(2 * time.Minute)
	assert.Eventually(t, func() bool {
		tr.mu.RLock()
		defer tr.mu.RUnlock()
		return len(tr.readings) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PruneEvery did not stop after cancel")
	}
}

func TestTracker_RejectsInvalidReadings(t *testing.T) {
	tr := NewTracker(clockwork.NewFakeClock(), 0)

	assert.ErrorIs(t, tr.Record("c1", domain.GeoPoint{Lat: 0, Lng: 200}), domain.ErrInvalidCoordinates)
	assert.Error(t, tr.Record("", reading1))

	_, _, ok := tr.Latest("c1")
	assert.False(t, ok)
}

func TestChain_FallsThroughToBase(t *testing.T) {
	tr := NewTracker(clockwork.NewFakeClock(), time.Minute)

	chain := Chain{
		Sensor{Failure: domain.OriginTimeout},
		tr.LastKnown("c1"),
		Fixed{Point: chukaBase},
	}

	p, err := chain.Origin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, chukaBase, p)

	require.NoError(t, tr.Record("c1", reading1))
	p, err = chain.Origin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reading1, p)
}

func TestChain_ReturnsFirstFailure(t *testing.T) {
	tr := NewTracker(clockwork.NewFakeClock(), time.Minute)

	chain := Chain{
		Sensor{Failure: domain.OriginPermissionDenied},
		tr.LastKnown("c1"),
	}

	_, err := chain.Origin(context.Background())
	assert.Equal(t, domain.OriginPermissionDenied, reasonOf(t, err))

	_, err = Chain{}.Origin(context.Background())
	assert.Equal(t, domain.OriginUnsupported, reasonOf(t, err))
}

func TestChain_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var chain ports.OriginProvider = Chain{Fixed{Point: chukaBase}}
	_, err := chain.Origin(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
