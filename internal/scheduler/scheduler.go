package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/slabkim/EVACUATE.AI/internal/dispatch"
	"github.com/slabkim/EVACUATE.AI/internal/feed"
)

// Scheduler triggers a normal-mode dispatch run on a fixed interval. It is
// deliberately dumb: overlap with HTTP-triggered runs is tolerated because
// the event gate, not mutual exclusion, is the safety net.
type Scheduler struct {
	reader     feed.Reader
	dispatcher *dispatch.Dispatcher
	interval   time.Duration
	wg         sync.WaitGroup
}

func New(reader feed.Reader, dispatcher *dispatch.Dispatcher, interval time.Duration) *Scheduler {
	return &Scheduler{
		reader:     reader,
		dispatcher: dispatcher,
		interval:   interval,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	slog.Info("starting dispatch scheduler", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Initial tick
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("dispatch scheduler shutting down")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	event, err := s.reader.Latest(ctx)
	if err != nil {
		// Fatal to this tick only. Nothing was dispatched and no state
		// moved, so the next tick retries cleanly.
		slog.Error("feed fetch failed", "error", err)
		return
	}

	if _, err := s.dispatcher.Run(ctx, event, dispatch.Mode{}); err != nil {
		slog.Error("scheduled dispatch failed", "event_id", event.ID(), "error", err)
	}
}

func (s *Scheduler) Stop() {
	s.wg.Wait()
	slog.Info("dispatch scheduler stopped")
}
