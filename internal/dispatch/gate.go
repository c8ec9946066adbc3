package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/slabkim/EVACUATE.AI/internal/models"
	"github.com/slabkim/EVACUATE.AI/internal/repository"
)

type Decision int

const (
	DecisionNew Decision = iota
	DecisionDuplicate
)

// EventGate is the idempotency guard: it compares an incoming event's
// identity against the last-processed marker and decides whether the event
// still needs dispatching.
type EventGate struct {
	state repository.StateRepository
}

func NewEventGate(state repository.StateRepository) *EventGate {
	return &EventGate{state: state}
}

// Decide returns DecisionDuplicate only on an exact identity match for a
// normal-mode run. An unreadable state store counts as NEW: an occasional
// duplicate alert beats silently dropping a real one.
func (g *EventGate) Decide(ctx context.Context, event *models.EarthquakeEvent, mode Mode) Decision {
	if mode.Forced || mode.Simulated {
		return DecisionNew
	}

	marker, err := g.state.Marker(ctx)
	if errors.Is(err, repository.ErrMarkerNotSet) {
		return DecisionNew
	}
	if err != nil {
		slog.Warn("dispatch state unreadable, assuming new event", "error", err)
		return DecisionNew
	}

	if marker == event.ID() {
		return DecisionDuplicate
	}
	return DecisionNew
}

// Commit records the event as fully processed. Callers must not commit
// forced or simulated runs.
func (g *EventGate) Commit(ctx context.Context, event *models.EarthquakeEvent) error {
	return g.state.SetMarker(ctx, event.ID())
}
