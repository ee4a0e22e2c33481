package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	remindersSelectedTotal  *prometheus.CounterVec
	remindersPublishedTotal *prometheus.CounterVec
	syncCyclesTotal         *prometheus.CounterVec
	streamClientsActive     prometheus.Gauge
	httpRequestsTotal       *prometheus.CounterVec
	httpLatencySeconds      *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors used by the reminder
// pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		remindersSelectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingat_reminders_selected_total",
			Help: "Reminders selected by the reconciliation engine, by category and threshold.",
		}, []string{"category", "threshold"})

		remindersPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingat_reminders_published_total",
			Help: "Reminder events handed to the delivery transports.",
		}, []string{"category"})

		syncCyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingat_sync_cycles_total",
			Help: "Canvas sync cycles, by outcome.",
		}, []string{"status"})

		streamClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ingat_stream_clients_active",
			Help: "Connected notification stream clients.",
		})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingat_http_requests_total",
			Help: "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ingat_http_latency_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		prometheus.MustRegister(remindersSelectedTotal, remindersPublishedTotal, syncCyclesTotal, streamClientsActive, httpRequestsTotal, httpLatencySeconds)
	})
}

// RemindersSelected exposes the engine selection counter.
func RemindersSelected() *prometheus.CounterVec {
	RegisterMetrics()
	return remindersSelectedTotal
}

// RemindersPublished exposes the dispatch counter.
func RemindersPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return remindersPublishedTotal
}

// SyncCycles exposes the sync cycle counter.
func SyncCycles() *prometheus.CounterVec {
	RegisterMetrics()
	return syncCyclesTotal
}

// StreamClientsActive exposes the connected stream client gauge.
func StreamClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return streamClientsActive
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}
