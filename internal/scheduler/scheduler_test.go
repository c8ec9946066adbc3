package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/slabkim/EVACUATE.AI/internal/config"
	"github.com/slabkim/EVACUATE.AI/internal/dispatch"
	"github.com/slabkim/EVACUATE.AI/internal/models"
	"github.com/slabkim/EVACUATE.AI/internal/observability"
	"github.com/slabkim/EVACUATE.AI/internal/push"
	"github.com/slabkim/EVACUATE.AI/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubReader struct {
	calls atomic.Int64
	err   error
}

func (r *stubReader) Latest(ctx context.Context) (*models.EarthquakeEvent, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &models.EarthquakeEvent{
		OccurredAt: time.Date(2026, 8, 30, 14, 5, 12, 0, time.UTC),
		Magnitude:  5.6,
		DepthKm:    20,
		Region:     "Test region",
	}, nil
}

type stubDevices struct{}

func (stubDevices) Upsert(ctx context.Context, d *models.Device) error { return nil }
func (stubDevices) List(ctx context.Context) ([]models.Device, error)  { return nil, nil }
func (stubDevices) Delete(ctx context.Context, token string) error     { return nil }
func (stubDevices) Count(ctx context.Context) (int, error)             { return 0, nil }

type stubState struct {
	marker atomic.Value // string
}

func (s *stubState) Marker(ctx context.Context) (string, error) {
	if v, ok := s.marker.Load().(string); ok && v != "" {
		return v, nil
	}
	return "", repository.ErrMarkerNotSet
}

func (s *stubState) SetMarker(ctx context.Context, eventID string) error {
	s.marker.Store(eventID)
	return nil
}

type stubGateway struct{}

func (stubGateway) Send(ctx context.Context, msg push.Message) error { return nil }

func newStubDispatcher() *dispatch.Dispatcher {
	cfg := config.DispatchConfig{RadiusKm: 200, StrongMagnitude: 5, WorkerCount: 1, BufferSize: 1}
	return dispatch.NewDispatcher(cfg, stubDevices{}, &stubState{}, stubGateway{}, observability.NewMetricsForTesting())
}

func TestScheduler_TicksAndStopsCleanly(t *testing.T) {
	reader := &stubReader{}
	s := New(reader, newStubDispatcher(), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	time.Sleep(70 * time.Millisecond)
	cancel()
	s.Stop()

	// Initial tick plus at least two interval ticks.
	if n := reader.calls.Load(); n < 3 {
		t.Errorf("expected at least 3 feed fetches, got %d", n)
	}
}

func TestScheduler_FeedErrorDoesNotStopTicking(t *testing.T) {
	reader := &stubReader{err: errors.New("feed down")}
	s := New(reader, newStubDispatcher(), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	time.Sleep(70 * time.Millisecond)
	cancel()
	s.Stop()

	if n := reader.calls.Load(); n < 3 {
		t.Errorf("expected the scheduler to keep polling through feed errors, got %d fetches", n)
	}
}
