package dispatch

import (
	"fmt"
	"strconv"

	"github.com/slabkim/EVACUATE.AI/internal/models"
	"github.com/slabkim/EVACUATE.AI/internal/push"
	"github.com/slabkim/EVACUATE.AI/internal/risk"
)

// buildMessage assembles the notification for one device. The data payload
// is consumed by the client app: key names and value formatting are a
// contract and must stay stable.
func buildMessage(token string, event *models.EarthquakeEvent, a risk.Assessment, mode Mode) push.Message {
	var title, body string
	if mode.Forced || mode.Simulated {
		title = "TEST Earthquake Alert"
		body = fmt.Sprintf("Disaster notification test. M%.1f - %s.", event.Magnitude, event.Region)
	} else {
		title = "Earthquake Alert"
		body = fmt.Sprintf("M%.1f - %.0f km deep - ~%.0f km from you. Open the app for guidance.",
			event.Magnitude, event.DepthKm, a.DistanceKm)
	}

	return push.Message{
		Token: token,
		Title: title,
		Body:  body,
		Data: map[string]string{
			"magnitude":      formatDecimal(event.Magnitude),
			"depth":          formatDecimal(event.DepthKm),
			"eqLat":          formatDecimal(event.Latitude),
			"eqLng":          formatDecimal(event.Longitude),
			"distanceKm":     strconv.FormatFloat(a.DistanceKm, 'f', 2, 64),
			"riskLevel":      string(a.Level),
			"riskScore":      strconv.Itoa(a.Score),
			"recommendation": a.Recommendation,
			"time":           event.ID(),
			"region":         event.Region,
		},
	}
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
