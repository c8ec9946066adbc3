package models

import "time"

// EarthquakeEvent is a single "latest earthquake" report from the seismic
// feed. It is immutable once received; OccurredAt is the dedup identity.
type EarthquakeEvent struct {
	OccurredAt       time.Time
	Magnitude        float64 // Richter scale, >= 0
	DepthKm          float64
	Latitude         float64 // WGS84 degrees
	Longitude        float64
	Region           string // display name, e.g. "Kab. Garut, Jawa Barat"
	TsunamiPotential string // optional feed text
	Felt             string // optional feed text
}

// ID returns the event's dedup identity, derived from its origin time.
func (e *EarthquakeEvent) ID() string {
	return e.OccurredAt.UTC().Format(time.RFC3339)
}
