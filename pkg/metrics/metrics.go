package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Stream metrics
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voltstream_sse_connections_active",
			Help: "Number of currently registered SSE connections",
		},
	)

	ConnectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voltstream_sse_connections_total",
			Help: "Total number of SSE connections accepted",
		},
	)

	DeadConnectionsReaped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voltstream_sse_dead_connections_total",
			Help: "Total number of dead SSE connections reaped during broadcast or heartbeat",
		},
	)

	FramesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voltstream_sse_frames_sent_total",
			Help: "Total number of SSE frames successfully written by frame type",
		},
		[]string{"type"},
	)

	BroadcasterRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voltstream_broadcaster_running",
			Help: "Whether the shared broadcast timer is running (1 = running, 0 = idle)",
		},
	)

	// Snapshot store metrics
	SnapshotFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voltstream_snapshot_fetch_duration_seconds",
			Help:    "Duration of device snapshot queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotFetchErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voltstream_snapshot_fetch_errors_total",
			Help: "Total number of failed device snapshot queries",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voltstream_api_requests_total",
			Help: "Total number of API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(ConnectionsActive)
	prometheus.MustRegister(ConnectionsTotal)
	prometheus.MustRegister(DeadConnectionsReaped)
	prometheus.MustRegister(FramesSent)
	prometheus.MustRegister(BroadcasterRunning)
	prometheus.MustRegister(SnapshotFetchDuration)
	prometheus.MustRegister(SnapshotFetchErrors)
	prometheus.MustRegister(APIRequestsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
