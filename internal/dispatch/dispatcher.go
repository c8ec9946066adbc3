package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/slabkim/EVACUATE.AI/internal/config"
	"github.com/slabkim/EVACUATE.AI/internal/models"
	"github.com/slabkim/EVACUATE.AI/internal/observability"
	"github.com/slabkim/EVACUATE.AI/internal/push"
	"github.com/slabkim/EVACUATE.AI/internal/repository"
	"github.com/slabkim/EVACUATE.AI/internal/risk"
	"github.com/slabkim/EVACUATE.AI/internal/worker"
)

// Mode selects how a run treats dedup and persisted state. Forced bypasses
// dedup and geo-filtering for the real event; Simulated does the same with
// a synthetic event. Neither mode ever writes the marker, so repeated test
// runs never block a future real dispatch.
type Mode struct {
	Forced    bool
	Simulated bool
}

const (
	StatusCompleted      = "completed"
	StatusNoNewEvent     = "no_new_event"
	StatusTestDispatched = "test_dispatched"
)

// Summary is the aggregated result of one dispatch run.
type Summary struct {
	RunID     string  `json:"runId"`
	Status    string  `json:"status"`
	Scanned   int64   `json:"scanned"`
	Sent      int64   `json:"sent"`
	Skipped   int64   `json:"skipped"`
	Failed    int64   `json:"failed"`
	Force     bool    `json:"force"`
	Dummy     bool    `json:"dummy"`
	EventID   string  `json:"eventId"`
	Magnitude float64 `json:"magnitude"`
	Region    string  `json:"region"`
	EqLat     float64 `json:"eqLat"`
	EqLng     float64 `json:"eqLng"`
}

// counters is the shared accumulator for the concurrent per-device tasks.
type counters struct {
	scanned atomic.Int64
	sent    atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// Dispatcher orchestrates a run: dedup check, device load, per-device risk
// scoring and eligibility, concurrent push fan-out, failure reconciliation,
// and the final marker commit.
type Dispatcher struct {
	cfg     config.DispatchConfig
	devices repository.DeviceRepository
	gate    *EventGate
	gateway push.Gateway
	metrics *observability.Metrics
}

func NewDispatcher(cfg config.DispatchConfig, devices repository.DeviceRepository, state repository.StateRepository, gateway push.Gateway, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg,
		devices: devices,
		gate:    NewEventGate(state),
		gateway: gateway,
		metrics: metrics,
	}
}

func (d *Dispatcher) Run(ctx context.Context, event *models.EarthquakeEvent, mode Mode) (*Summary, error) {
	runID := uuid.NewString()
	start := time.Now()
	log := slog.With("run_id", runID, "event_id", event.ID())

	summary := &Summary{
		RunID:     runID,
		Force:     mode.Forced,
		Dummy:     mode.Simulated,
		EventID:   event.ID(),
		Magnitude: event.Magnitude,
		Region:    event.Region,
		EqLat:     event.Latitude,
		EqLng:     event.Longitude,
	}

	if d.gate.Decide(ctx, event, mode) == DecisionDuplicate {
		summary.Status = StatusNoNewEvent
		d.metrics.DispatchRuns.WithLabelValues(StatusNoNewEvent).Inc()
		log.Info("event already processed, skipping run")
		return summary, nil
	}

	devices, err := d.devices.List(ctx)
	if err != nil {
		d.metrics.DispatchRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("error loading devices: %w", err)
	}

	var c counters
	pool := worker.NewPool(d.cfg.WorkerCount, d.cfg.BufferSize, func(ctx context.Context, job worker.Job) {
		d.notifyDevice(ctx, log, job.(*models.Device), event, mode, &c)
	})
	pool.Start(ctx)

	for i := range devices {
		if !pool.Submit(ctx, &devices[i]) {
			log.Warn("run aborted mid-fanout", "submitted", i, "total", len(devices))
			break
		}
	}
	pool.Wait()

	summary.Scanned = c.scanned.Load()
	summary.Sent = c.sent.Load()
	summary.Skipped = c.skipped.Load()
	summary.Failed = c.failed.Load()

	if mode.Forced || mode.Simulated {
		summary.Status = StatusTestDispatched
	} else {
		summary.Status = StatusCompleted
		// Commit only after the fan-out join, only for a real run, and
		// only when the run was not aborted: an uncommitted marker makes
		// the retry safe. A commit failure risks a duplicate dispatch
		// next run, which is the accepted tradeoff; sends already
		// happened.
		if ctx.Err() != nil {
			log.Warn("run aborted before commit, marker left unchanged")
		} else if err := d.gate.Commit(ctx, event); err != nil {
			log.Error("failed to commit dispatch marker", "error", err)
		}
	}

	d.metrics.DispatchRuns.WithLabelValues(summary.Status).Inc()
	d.metrics.RunDuration.Observe(time.Since(start).Seconds())

	log.Info("dispatch run finished",
		"status", summary.Status,
		"scanned", summary.Scanned,
		"sent", summary.Sent,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (d *Dispatcher) notifyDevice(ctx context.Context, log *slog.Logger, device *models.Device, event *models.EarthquakeEvent, mode Mode, c *counters) {
	c.scanned.Add(1)
	d.metrics.DevicesScanned.Inc()

	token := strings.TrimSpace(device.Token)
	if token == "" {
		c.skipped.Add(1)
		return
	}

	a := risk.Assess(risk.Input{
		UserLat:   device.Latitude,
		UserLng:   device.Longitude,
		EqLat:     event.Latitude,
		EqLng:     event.Longitude,
		Magnitude: event.Magnitude,
		DepthKm:   event.DepthKm,
	})

	if !eligible(mode, a.DistanceKm, d.cfg.RadiusKm, event.Magnitude, d.cfg.StrongMagnitude) {
		c.skipped.Add(1)
		return
	}

	err := d.gateway.Send(ctx, buildMessage(token, event, a, mode))
	if err == nil {
		c.sent.Add(1)
		d.metrics.NotificationsSent.Inc()
		return
	}

	c.failed.Add(1)
	if push.IsInvalidToken(err) {
		d.metrics.SendFailures.WithLabelValues("invalid_token").Inc()
		if delErr := d.devices.Delete(ctx, token); delErr != nil {
			log.Error("failed to delete invalid token", "error", delErr)
		} else {
			d.metrics.DevicesDeleted.Inc()
			log.Info("deleted invalid token")
		}
		return
	}
	d.metrics.SendFailures.WithLabelValues("transient").Inc()
	log.Warn("push delivery failed", "error", err)
}

// eligible reproduces the notification policy: test modes always send; a
// real event sends when the device is within the radius or the quake is
// strong enough to matter at any distance. The radius check is inclusive.
func eligible(mode Mode, distanceKm, radiusKm, magnitude, strongMagnitude float64) bool {
	if mode.Forced || mode.Simulated {
		return true
	}
	return distanceKm <= radiusKm || magnitude >= strongMagnitude
}
