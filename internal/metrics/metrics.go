// Package metrics exposes Prometheus instruments for the simulation and its
// HTTP surface, plus the localhost-only debug server (pprof + /metrics).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality (no per-client labels)
var (
	// Simulation metrics
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flight_tick_duration_seconds",
		Help:    "Time spent in a simulation tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025},
	})

	scoreGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flight_score",
		Help: "Current score",
	})

	bulletsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flight_bullets_active",
		Help: "Bullets currently in flight",
	})

	targetsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flight_targets_active",
		Help: "Targets not currently destroyed",
	})

	targetHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flight_target_hits_total",
		Help: "Targets destroyed by the aircraft",
	})

	targetRespawns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flight_target_respawns_total",
		Help: "Targets restored by the respawn sweep",
	})

	collisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flight_collisions_total",
		Help: "Moves rejected by the collision probe",
	})

	bulletsFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flight_bullets_fired_total",
		Help: "Bullets spawned",
	})

	// Event log metrics
	eventLogTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_total",
		Help: "Total events logged",
	})

	eventLogDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_dropped",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_limit"

	// HTTP metrics with bounded labels
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// RecordTick records tick timing.
func RecordTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// UpdateWorld sets the per-tick gauges.
func UpdateWorld(score, bullets, activeTargets int) {
	scoreGauge.Set(float64(score))
	bulletsActive.Set(float64(bullets))
	targetsActive.Set(float64(activeTargets))
}

// AddTargetHits counts destroyed targets.
func AddTargetHits(n int) { targetHits.Add(float64(n)) }

// AddTargetRespawns counts restored targets.
func AddTargetRespawns(n int) { targetRespawns.Add(float64(n)) }

// IncCollisions counts a rejected move.
func IncCollisions() { collisions.Inc() }

// IncBulletsFired counts a spawned bullet.
func IncBulletsFired() { bulletsFired.Inc() }

// UpdateEventLogStats mirrors the event log counters.
func UpdateEventLogStats(total, dropped uint64) {
	eventLogTotal.Set(float64(total))
	eventLogDropped.Set(float64(dropped))
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of: "rate_limit", "origin", "ws_limit"
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics.
func RecordRequest(method, endpoint string, status int, d time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(d.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates the WebSocket connection gauge.
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments the WebSocket message counter.
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
