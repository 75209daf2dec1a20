package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	socketConnectionsTotal prometheus.Counter
	socketSessionsActive   prometheus.Gauge
	socketEventsDropped    prometheus.Counter
	chatMessagesSentTotal  prometheus.Counter
	notificationsPublished *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		socketConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "socket_connections_total",
			Help: "Total number of websocket connections accepted.",
		})

		socketSessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socket_sessions_active",
			Help: "Number of currently connected websocket sessions.",
		})

		socketEventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "socket_events_dropped_total",
			Help: "Socket events dropped because a client send buffer was full.",
		})

		chatMessagesSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total number of chat messages persisted.",
		})

		notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Total number of notifications persisted, by type.",
		}, []string{"type"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			socketConnectionsTotal,
			socketSessionsActive,
			socketEventsDropped,
			chatMessagesSentTotal,
			notificationsPublished,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SocketConnectionsTotal exposes the websocket connection counter.
func SocketConnectionsTotal() prometheus.Counter {
	RegisterMetrics()
	return socketConnectionsTotal
}

// SocketSessionsActive exposes the live session gauge.
func SocketSessionsActive() prometheus.Gauge {
	RegisterMetrics()
	return socketSessionsActive
}

// SocketEventsDropped exposes the dropped event counter.
func SocketEventsDropped() prometheus.Counter {
	RegisterMetrics()
	return socketEventsDropped
}

// ChatMessagesSent exposes the persisted message counter.
func ChatMessagesSent() prometheus.Counter {
	RegisterMetrics()
	return chatMessagesSentTotal
}

// NotificationsPublished exposes the notification counter, labelled by type.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublished
}
