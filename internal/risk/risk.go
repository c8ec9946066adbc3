package risk

import "math"

const earthRadiusKm = 6371.0

// Level is the ordinal severity bucket of an assessment.
type Level string

const (
	LevelLow     Level = "LOW"
	LevelMedium  Level = "MEDIUM"
	LevelHigh    Level = "HIGH"
	LevelExtreme Level = "EXTREME"
)

// Assessment is derived per (event, device) pair and never persisted.
type Assessment struct {
	DistanceKm     float64
	Score          int // 0..100
	Level          Level
	Recommendation string
}

// Input carries the coordinates and event parameters for one assessment.
type Input struct {
	UserLat   float64
	UserLng   float64
	EqLat     float64
	EqLng     float64
	Magnitude float64
	DepthKm   float64
}

// Assess computes great-circle distance and a 0-100 risk score.
// Pure and total: any coordinates produce a valid (possibly large)
// distance; magnitude and depth are assumed validated upstream.
func Assess(in Input) Assessment {
	distanceKm := HaversineKm(in.UserLat, in.UserLng, in.EqLat, in.EqLng)

	base := in.Magnitude * 15
	distancePenalty := math.Min(60, distanceKm*0.25)
	depthFactor := 3.0
	switch {
	case in.DepthKm <= 30:
		depthFactor = 15
	case in.DepthKm <= 70:
		depthFactor = 8
	}

	raw := base + depthFactor - distancePenalty
	score := int(math.Round(clamp(raw, 0, 100)))
	level := levelFor(score)

	return Assessment{
		DistanceKm:     distanceKm,
		Score:          score,
		Level:          level,
		Recommendation: recommendationFor(level),
	}
}

// HaversineKm returns the great-circle distance between two WGS84 points
// using a mean Earth radius of 6371 km.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func levelFor(score int) Level {
	switch {
	case score >= 85:
		return LevelExtreme
	case score >= 70:
		return LevelHigh
	case score >= 40:
		return LevelMedium
	default:
		return LevelLow
	}
}

func recommendationFor(level Level) string {
	switch level {
	case LevelExtreme:
		return "Drop, cover, and hold on immediately. Stay away from glass, do not use elevators, and be ready to evacuate."
	case LevelHigh:
		return "Stay on high alert. Protect your head, keep clear of hanging objects, and follow official guidance."
	case LevelMedium:
		return "Watch for aftershocks. Make sure your exit route is clear and your emergency kit is ready."
	default:
		return "Risk is relatively low. Stay calm, check your surroundings, and follow official updates."
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
