package repository

import (
	"context"
	"errors"

	"github.com/slabkim/EVACUATE.AI/internal/models"
)

// ErrMarkerNotSet is returned by Marker before any dispatch has committed.
var ErrMarkerNotSet = errors.New("dispatch marker not set")

// DeviceRepository is the device directory: registered push destinations
// keyed by token.
type DeviceRepository interface {
	Upsert(ctx context.Context, d *models.Device) error
	List(ctx context.Context) ([]models.Device, error)
	Delete(ctx context.Context, token string) error
	Count(ctx context.Context) (int, error)
}

// StateRepository holds the dispatch dedup state: the identity of the most
// recently fully-processed earthquake event.
type StateRepository interface {
	Marker(ctx context.Context) (string, error)
	SetMarker(ctx context.Context, eventID string) error
}
