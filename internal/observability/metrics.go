package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the dispatch pipeline.
type Metrics struct {
	DispatchRuns      *prometheus.CounterVec // labels: status={completed,no_new_event,test_dispatched,error}
	DevicesScanned    prometheus.Counter
	NotificationsSent prometheus.Counter
	SendFailures      *prometheus.CounterVec // labels: kind={invalid_token,transient}
	DevicesDeleted    prometheus.Counter
	RunDuration       prometheus.Histogram
}

// NewMetrics creates and registers all dispatch metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DispatchRuns,
		m.DevicesScanned,
		m.NotificationsSent,
		m.SendFailures,
		m.DevicesDeleted,
		m.RunDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DispatchRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakepush",
			Name:      "dispatch_runs_total",
			Help:      "Dispatch runs by outcome status.",
		}, []string{"status"}),
		DevicesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakepush",
			Name:      "devices_scanned_total",
			Help:      "Device records examined across all runs.",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakepush",
			Name:      "notifications_sent_total",
			Help:      "Push notifications accepted by the provider.",
		}),
		SendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakepush",
			Name:      "send_failures_total",
			Help:      "Push delivery failures by classification.",
		}, []string{"kind"}),
		DevicesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakepush",
			Name:      "devices_deleted_total",
			Help:      "Device records removed after permanent token failures.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakepush",
			Name:      "dispatch_run_duration_seconds",
			Help:      "Duration of a complete dispatch run including the fan-out join.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}
