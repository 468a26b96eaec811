// Package metrics provides Prometheus metrics for the journey planner.
package metrics

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Planner metrics
	PlanRequestsTotal    *prometheus.CounterVec
	PlanDuration         prometheus.Histogram
	PlanJourneysReturned prometheus.Histogram

	// Stops database metrics
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBWaitSecondsTotal prometheus.Counter

	// logger for error reporting
	logger *slog.Logger

	// collectorStarted prevents spawning multiple collector goroutines
	collectorStarted atomic.Bool

	// cancel stops the DB stats collector goroutine
	cancel context.CancelFunc

	// wg tracks the DB stats collector goroutine for graceful shutdown
	wg sync.WaitGroup
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raptor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raptor_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	planRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raptor_plan_requests_total",
			Help: "Total number of journey planning queries",
		},
		[]string{"status"},
	)

	planDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "raptor_plan_duration_seconds",
		Help:    "Journey query latency distribution",
		Buckets: prometheus.DefBuckets,
	})

	planJourneysReturned := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "raptor_plan_journeys_returned",
		Help:    "Number of Pareto-optimal journeys per query",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 8, 10},
	})

	dbConnectionsOpen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "raptor_db_connections_open",
		Help: "Number of open stops database connections",
	})

	dbConnectionsInUse := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "raptor_db_connections_in_use",
		Help: "Number of stops database connections currently in use",
	})

	dbWaitSecondsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "raptor_db_wait_seconds_total",
		Help: "Total time blocked waiting for a stops database connection",
	})

	// Register all metrics with the custom registry
	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		planRequestsTotal,
		planDuration,
		planJourneysReturned,
		dbConnectionsOpen,
		dbConnectionsInUse,
		dbWaitSecondsTotal,
	)

	return &Metrics{
		Registry:             registry,
		HTTPRequestsTotal:    httpRequestsTotal,
		HTTPRequestDuration:  httpRequestDuration,
		PlanRequestsTotal:    planRequestsTotal,
		PlanDuration:         planDuration,
		PlanJourneysReturned: planJourneysReturned,
		DBConnectionsOpen:    dbConnectionsOpen,
		DBConnectionsInUse:   dbConnectionsInUse,
		DBWaitSecondsTotal:   dbWaitSecondsTotal,
		logger:               logger,
	}
}

// ObservePlan records the outcome of one journey planning query.
func (m *Metrics) ObservePlan(status string, duration time.Duration, journeys int) {
	m.PlanRequestsTotal.WithLabelValues(status).Inc()
	m.PlanDuration.Observe(duration.Seconds())
	if status == "ok" {
		m.PlanJourneysReturned.Observe(float64(journeys))
	}
}

// StartDBStatsCollector starts a goroutine that periodically collects database
// connection pool statistics and updates the corresponding metrics.
// The interval specifies how often to collect stats.
// This method is idempotent - calling it multiple times has no effect after the first call.
// Call Shutdown() to stop the collector.
func (m *Metrics) StartDBStatsCollector(db *sql.DB, interval time.Duration) {
	if db == nil {
		return
	}

	// Prevent spawning multiple collectors
	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	var lastWaitDuration time.Duration

	// Add to WaitGroup BEFORE exposing cancel to avoid race with Shutdown
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if m.logger != nil {
					m.logger.Error("panic in DB stats collector", "error", r)
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats := db.Stats()
				m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
				m.DBConnectionsInUse.Set(float64(stats.InUse))

				// Add the delta of wait duration since last check
				waitDelta := stats.WaitDuration - lastWaitDuration
				if waitDelta > 0 {
					m.DBWaitSecondsTotal.Add(waitDelta.Seconds())
				}
				lastWaitDuration = stats.WaitDuration

			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops the DB stats collector goroutine and waits for it to exit.
// This method is safe to call multiple times.
func (m *Metrics) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
