package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registrations counts account registrations by outcome.
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devfolio_registrations_total",
		Help: "Account registrations by outcome",
	}, []string{"outcome"})

	// Logins counts login attempts by outcome.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devfolio_logins_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	// PictureUploads counts profile picture uploads by outcome.
	PictureUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devfolio_profile_picture_uploads_total",
		Help: "Profile picture uploads by outcome",
	}, []string{"outcome"})

	// CacheLookups counts profile cache lookups by result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devfolio_profile_cache_lookups_total",
		Help: "Profile cache lookups by result",
	}, []string{"result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devfolio_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
