package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/slabkim/EVACUATE.AI/internal/models"
)

// Reader fetches the latest earthquake event from the seismic feed.
type Reader interface {
	Latest(ctx context.Context) (*models.EarthquakeEvent, error)
}

// BMKGClient reads the BMKG autogempa JSON feed.
type BMKGClient struct {
	url    string
	client *http.Client
}

func NewBMKGClient(url string, timeout time.Duration) *BMKGClient {
	return &BMKGClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type bmkgResponse struct {
	Infogempa struct {
		Gempa bmkgQuake `json:"gempa"`
	} `json:"Infogempa"`
}

// BMKG serves most numeric fields as strings ("6.8", "10 km") and
// coordinates both as a "lat,lng" pair and as hemisphere-suffixed
// Lintang/Bujur strings ("7.22 LS", "107.90 BT").
type bmkgQuake struct {
	DateTime    string          `json:"DateTime"`
	Coordinates string          `json:"Coordinates"`
	Lintang     string          `json:"Lintang"`
	Bujur       string          `json:"Bujur"`
	Magnitude   json.RawMessage `json:"Magnitude"`
	Kedalaman   json.RawMessage `json:"Kedalaman"`
	Wilayah     string          `json:"Wilayah"`
	Potensi     string          `json:"Potensi"`
	Dirasakan   string          `json:"Dirasakan"`
}

func (c *BMKGClient) Latest(ctx context.Context) (*models.EarthquakeEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data bmkgResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	q := data.Infogempa.Gempa
	if q.DateTime == "" && q.Coordinates == "" && q.Wilayah == "" {
		return nil, fmt.Errorf("unrecognized BMKG payload shape")
	}

	lat, lng := parseCoordinatePair(q.Coordinates)
	if lat == 0 && lng == 0 {
		lat = parseHemisphereCoordinate(q.Lintang)
		lng = parseHemisphereCoordinate(q.Bujur)
	}

	region := q.Wilayah
	if region == "" {
		region = "Unknown region"
	}

	return &models.EarthquakeEvent{
		OccurredAt:       parseFeedTime(q.DateTime),
		Magnitude:        parseLooseNumber(string(q.Magnitude)),
		DepthKm:          parseLooseNumber(string(q.Kedalaman)),
		Latitude:         lat,
		Longitude:        lng,
		Region:           region,
		TsunamiPotential: q.Potensi,
		Felt:             q.Dirasakan,
	}, nil
}

func parseFeedTime(value string) time.Time {
	if value != "" {
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t
		}
		// BMKG has shipped "2006-01-02 15:04:05" without a zone; their
		// quoted times are WIB (UTC+7).
		if t, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
			return t.Add(-7 * time.Hour)
		}
	}
	return time.Now().UTC()
}

func parseCoordinatePair(value string) (float64, float64) {
	parts := strings.Split(strings.TrimSpace(value), ",")
	if len(parts) < 2 {
		return 0, 0
	}
	return parseLooseNumber(parts[0]), parseLooseNumber(parts[1])
}

// parseHemisphereCoordinate reads values like "7.22 LS" (south) or
// "107.90 BT" (east); LS and BB are the negative hemispheres.
func parseHemisphereCoordinate(text string) float64 {
	value := parseLooseNumber(text)
	upper := strings.ToUpper(text)
	if strings.Contains(upper, "LS") || strings.Contains(upper, "BB") {
		return -abs(value)
	}
	return abs(value)
}

var numberPattern = regexp.MustCompile(`-?\d+(\.\d+)?`)

// parseLooseNumber extracts the first number from loosely-typed feed
// fields: quoted strings, comma decimal separators, unit suffixes ("10 km").
func parseLooseNumber(raw string) float64 {
	normalized := strings.ReplaceAll(strings.Trim(raw, `" `), ",", ".")
	match := numberPattern.FindString(normalized)
	if match == "" {
		return 0
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return f
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
