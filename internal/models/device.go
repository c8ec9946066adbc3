package models

import "time"

// Device is one registered push destination. Token is the unique identity.
// Latitude/Longitude may be 0/0 when the app never obtained a location fix;
// such devices still participate in distance math and are effectively only
// notified for strong events.
type Device struct {
	Token     string
	Platform  string // "android", "ios", "unknown"
	Latitude  float64
	Longitude float64
	UpdatedAt time.Time
}
