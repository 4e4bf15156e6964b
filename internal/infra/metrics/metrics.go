// Package metrics exposes Prometheus collectors for the homework watcher.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "homework_watcher"

// Cycle results.
const (
	CycleResultOK    = "ok"
	CycleResultError = "error"
)

var (
	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Poll cycles executed, by result",
		},
		[]string{"result"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications handed to the messaging channel",
		},
		[]string{"kind", "delivered"},
	)

	upstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of homework API requests",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	lastSuccessfulCycle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_cycle_timestamp_seconds",
			Help:      "Unix time of the last cycle that finished without error",
		},
	)
)

// RecordCycle counts a finished poll cycle.
func RecordCycle(result string, at time.Time) {
	cyclesTotal.WithLabelValues(result).Inc()
	if result == CycleResultOK {
		lastSuccessfulCycle.Set(float64(at.Unix()))
	}
}

// RecordNotification counts a notification attempt.
func RecordNotification(kind string, delivered bool) {
	label := "false"
	if delivered {
		label = "true"
	}
	notificationsTotal.WithLabelValues(kind, label).Inc()
}

// RecordUpstreamRequest observes one homework API request.
func RecordUpstreamRequest(outcome string, duration time.Duration) {
	upstreamDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
