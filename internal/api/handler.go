package api

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/slabkim/EVACUATE.AI/internal/dispatch"
	"github.com/slabkim/EVACUATE.AI/internal/feed"
	"github.com/slabkim/EVACUATE.AI/internal/models"
	"github.com/slabkim/EVACUATE.AI/internal/repository"
	"github.com/slabkim/EVACUATE.AI/internal/risk"
)

type Handler struct {
	reader     feed.Reader
	dispatcher *dispatch.Dispatcher
	devices    repository.DeviceRepository
	cronSecret string
}

func NewHandler(reader feed.Reader, dispatcher *dispatch.Dispatcher, devices repository.DeviceRepository, cronSecret string) *Handler {
	return &Handler{
		reader:     reader,
		dispatcher: dispatcher,
		devices:    devices,
		cronSecret: cronSecret,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/dispatch/run", h.runDispatch)
	r.POST("/api/dispatch/run", h.runDispatch)
	r.POST("/api/devices/register", h.registerDevice)
	r.POST("/api/risk/score", h.scoreRisk)
	r.GET("/health", h.health)
}

// runDispatch is the single trigger for a dispatch run, normally hit by an
// external cron. Query params: force, dummy, and the dummy-event overrides.
func (h *Handler) runDispatch(c *gin.Context) {
	if !h.authorized(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized dispatch trigger"})
		return
	}

	mode := dispatch.Mode{
		Forced:    parseBoolQuery(c.Query("force")),
		Simulated: parseBoolQuery(c.Query("dummy")),
	}

	var event *models.EarthquakeEvent
	if mode.Simulated {
		event = buildDummyEvent(c)
	} else {
		var err error
		event, err = h.reader.Latest(c.Request.Context())
		if err != nil {
			slog.Error("feed fetch failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":  "failed to fetch the earthquake feed",
				"detail": err.Error(),
			})
			return
		}
	}

	summary, err := h.dispatcher.Run(c.Request.Context(), event, mode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "dispatch run failed",
			"detail": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

type registerRequest struct {
	Token    string  `json:"token"`
	Platform string  `json:"platform"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

func (h *Handler) registerDevice(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "push token is required"})
		return
	}

	platform := strings.TrimSpace(req.Platform)
	if platform == "" {
		platform = "unknown"
	}

	device := &models.Device{
		Token:     token,
		Platform:  platform,
		Latitude:  req.Lat,
		Longitude: req.Lng,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.devices.Upsert(c.Request.Context(), device); err != nil {
		slog.Error("device upsert failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type scoreRequest struct {
	UserLat   *float64 `json:"userLat"`
	UserLng   *float64 `json:"userLng"`
	EqLat     *float64 `json:"eqLat"`
	EqLng     *float64 `json:"eqLng"`
	Magnitude *float64 `json:"magnitude"`
	DepthKm   *float64 `json:"depthKm"`
}

func (h *Handler) scoreRisk(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid risk score payload"})
		return
	}
	if req.UserLat == nil || req.UserLng == nil || req.EqLat == nil || req.EqLng == nil ||
		req.Magnitude == nil || req.DepthKm == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid risk score payload"})
		return
	}

	a := risk.Assess(risk.Input{
		UserLat:   *req.UserLat,
		UserLng:   *req.UserLng,
		EqLat:     *req.EqLat,
		EqLng:     *req.EqLng,
		Magnitude: *req.Magnitude,
		DepthKm:   *req.DepthKm,
	})

	c.JSON(http.StatusOK, gin.H{
		"riskScore":      a.Score,
		"riskLevel":      a.Level,
		"recommendation": a.Recommendation,
		"distanceKm":     a.DistanceKm,
	})
}

func (h *Handler) health(c *gin.Context) {
	n, err := h.devices.Count(c.Request.Context())
	if err != nil {
		// Still alive; the device directory being down shows up as a
		// degraded health payload, not a failed probe.
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "detail": "device directory unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "devices": n})
}

// authorized checks the shared cron secret. An unset secret leaves the
// trigger open, which matches local/dev usage.
func (h *Handler) authorized(c *gin.Context) bool {
	if h.cronSecret == "" {
		return true
	}
	if c.GetHeader("X-Cron-Secret") == h.cronSecret {
		return true
	}
	auth := c.GetHeader("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == h.cronSecret
}

func parseBoolQuery(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

// buildDummyEvent synthesizes a test event from query overrides so a dummy
// run never has to touch the real feed.
func buildDummyEvent(c *gin.Context) *models.EarthquakeEvent {
	magnitude := clampFloat(queryFloat(c, 6.0, "magnitude", "mag"), 0, 10)
	depth := math.Max(0, queryFloat(c, 10, "depthKm", "depth"))
	lat := queryFloat(c, -6.2088, "eqLat", "lat")
	lng := queryFloat(c, 106.8456, "eqLng", "lng")

	region := strings.TrimSpace(firstQuery(c, "region", "area"))
	if region == "" {
		region = "Simulated dummy event"
	}

	occurredAt := time.Now().UTC()
	if raw := strings.TrimSpace(firstQuery(c, "time", "dateTime")); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			occurredAt = t
		}
	}

	return &models.EarthquakeEvent{
		OccurredAt:       occurredAt,
		Magnitude:        magnitude,
		DepthKm:          depth,
		Latitude:         lat,
		Longitude:        lng,
		Region:           region,
		TsunamiPotential: "SIMULATED",
		Felt:             "SIMULATED",
	}
}

func firstQuery(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v := c.Query(k); v != "" {
			return v
		}
	}
	return ""
}

func queryFloat(c *gin.Context, fallback float64, keys ...string) float64 {
	raw := strings.TrimSpace(firstQuery(c, keys...))
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
