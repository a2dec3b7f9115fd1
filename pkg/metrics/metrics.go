// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// MessagesTotal tracks messages persisted, by type and channel.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total chat messages persisted",
		},
		[]string{"type", "channel"},
	)

	// MessagesRejectedTotal tracks sends rejected before any store call.
	MessagesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_rejected_total",
			Help: "Sends rejected by local validation or gating",
		},
		[]string{"reason"},
	)

	// SSEConnectionsActive tracks active SSE room streams.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// RoomsResolvedTotal tracks escalation episodes closed by staff.
	RoomsResolvedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_rooms_resolved_total",
			Help: "Escalated rooms resolved by staff",
		},
	)

	// ListingCacheHits counts listing lookups served from cache.
	ListingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_cache_hits_total",
			Help: "Listing metadata lookups served from cache",
		},
	)

	// ListingCacheMisses counts listing lookups that reached the catalog.
	ListingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_cache_misses_total",
			Help: "Listing metadata lookups that missed the cache",
		},
	)

	// UploadBytesTotal tracks attachment bytes written to blob storage.
	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_upload_bytes_total",
			Help: "Attachment bytes written to blob storage",
		},
	)

	// SuggestDuration tracks reply-suggestion latency by provider.
	SuggestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assist_suggest_duration_seconds",
			Help:    "Reply suggestion latency",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
