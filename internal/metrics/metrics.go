// Package metrics exposes the Prometheus collectors of the matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RatingsSubmitted counts stored ratings by type.
	RatingsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muzz_ratings_submitted_total",
		Help: "Total number of ratings stored, by rating type",
	}, []string{"type"})

	// MatchesCreated counts match rows created.
	MatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "muzz_matches_created_total",
		Help: "Total number of matches created",
	})

	// MatchInsertConflicts counts match attempts that found the pair already matched.
	MatchInsertConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "muzz_match_insert_conflicts_total",
		Help: "Match attempts that found the pair already matched",
	})

	// Unmatches counts matches deactivated.
	Unmatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "muzz_unmatches_total",
		Help: "Total number of matches deactivated",
	})

	// MessagesSent counts messages stored.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "muzz_messages_sent_total",
		Help: "Total number of messages sent",
	})

	// NotificationsCreated counts notifications by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muzz_notifications_created_total",
		Help: "Total number of notifications created, by type",
	}, []string{"type"})

	// CacheErrors counts Redis failures by operation. The DB is used as fallback.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muzz_cache_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})

	// HTTPRequests counts HTTP requests by route template, method and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muzz_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"route", "method", "status"})

	// HTTPLatency records HTTP handler latency by route template.
	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "muzz_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)
