// Package observability holds the Prometheus collectors and OpenTelemetry tracer shared by the service.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamelogue_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records repository latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamelogue_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// UploadsTotal counts stored images by backend (remote, local) and result.
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamelogue_uploads_total",
		Help: "Total image uploads by storage backend and result",
	}, []string{"backend", "result"})

	// UploadBytes records the size of accepted uploads.
	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gamelogue_upload_bytes",
		Help:    "Size of accepted uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 4, 7),
	})

	// PostEventsTotal counts post mutations by event (created, deleted, liked, unliked, commented, visibility).
	PostEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamelogue_post_events_total",
		Help: "Total post mutations by event type",
	}, []string{"event"})

	// AuthEventsTotal counts authentication attempts by event and outcome.
	AuthEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamelogue_auth_events_total",
		Help: "Total authentication events by type and outcome",
	}, []string{"event", "outcome"})

	// FeedCacheResults counts public feed cache lookups by result (hit, miss, error).
	FeedCacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamelogue_feed_cache_results_total",
		Help: "Public feed cache lookups by result",
	}, []string{"result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordPostEvent increments the post mutation counter.
func RecordPostEvent(event string) {
	PostEventsTotal.WithLabelValues(event).Inc()
}

// RecordAuthEvent increments the authentication counter.
func RecordAuthEvent(event, outcome string) {
	AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}
