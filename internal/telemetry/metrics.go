// Package telemetry holds process metrics and the health-change feed. Nothing
// here feeds back into the simulation.
package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality (no per-target labels)
var (
	// Step pipeline metrics
	stepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "combat_step_duration_seconds",
		Help:    "Time spent in one simulation step",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	})

	stepDirty = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "combat_step_dirty_targets",
		Help:    "Targets resolved per step",
		Buckets: prometheus.ExponentialBuckets(1, 4, 7),
	})

	stepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combat_steps_total",
		Help: "Simulation steps run",
	})

	pipelineTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "combat_pipeline_events_total",
		Help: "Pipeline work by phase",
	}, []string{"kind"}) // Bounded: see the pipelineKind constants

	liveTargets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "combat_live_targets",
		Help: "Current number of targets",
	})

	liveProjectiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "combat_live_projectiles",
		Help: "Current number of projectiles",
	})

	// Event log metrics
	eventLogTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_log_total",
		Help: "Total events logged",
	})

	eventLogDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_log_dropped_total",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	feedDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "health_feed_dropped_total",
		Help: "Health changes dropped because the feed ring was full",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "invalid", "ws_limit", "auth"

	// HTTP metrics with bounded labels
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is path pattern, not full URL

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

const (
	pipelineRecords        = "records"
	pipelineStale          = "stale"
	pipelineHealthChanges  = "health_changes"
	pipelineProcs          = "procs"
	pipelineSpawns         = "spawns"
	pipelineLoopTriggers   = "loop_triggers"
	pipelineHitOverflow    = "hit_overflow"
	pipelineLedgerOverflow = "ledger_overflow"
)

// StepSample is what one step reports to metrics
type StepSample struct {
	Duration          time.Duration
	Dirty             int
	Records           int
	Stale             int
	HealthChanges     int
	Procs             int
	Spawns            int
	LoopTriggers      int
	CollectorOverflow int
	LedgerOverflow    int
	Targets           int
	Projectiles       int
}

// ObserveStep records one simulation step
func ObserveStep(s StepSample) {
	stepsTotal.Inc()
	stepDuration.Observe(s.Duration.Seconds())
	stepDirty.Observe(float64(s.Dirty))
	addPipeline(pipelineRecords, s.Records)
	addPipeline(pipelineStale, s.Stale)
	addPipeline(pipelineHealthChanges, s.HealthChanges)
	addPipeline(pipelineProcs, s.Procs)
	addPipeline(pipelineSpawns, s.Spawns)
	addPipeline(pipelineLoopTriggers, s.LoopTriggers)
	addPipeline(pipelineHitOverflow, s.CollectorOverflow)
	addPipeline(pipelineLedgerOverflow, s.LedgerOverflow)
	liveTargets.Set(float64(s.Targets))
	liveProjectiles.Set(float64(s.Projectiles))
}

func addPipeline(kind string, n int) {
	if n > 0 {
		pipelineTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// Counters only go up, so event log totals are tracked as deltas
var (
	eventLogMu          sync.Mutex
	lastEventLogTotal   uint64
	lastEventLogDropped uint64
)

// UpdateEventLogStats folds absolute event log totals into the counters.
// A total lower than the last seen one means the log was restarted.
func UpdateEventLogStats(total, dropped uint64) {
	eventLogMu.Lock()
	defer eventLogMu.Unlock()

	if total < lastEventLogTotal {
		lastEventLogTotal = 0
	}
	if dropped < lastEventLogDropped {
		lastEventLogDropped = 0
	}
	eventLogTotal.Add(float64(total - lastEventLogTotal))
	eventLogDropped.Add(float64(dropped - lastEventLogDropped))
	lastEventLogTotal, lastEventLogDropped = total, dropped
}

// RecordConnectionRejected increments the rejection counter
// reason must be one of: "rate_limit", "origin", "invalid", "ws_limit", "auth"
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
