package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestLatency records outbound request latency by endpoint.
	APIRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "memefeed_api_request_latency_seconds",
		Help:    "Outbound API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// APIRequestErrors counts failed outbound requests by endpoint and code.
	APIRequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memefeed_api_request_errors_total",
		Help: "Total number of failed outbound API requests",
	}, []string{"endpoint", "code"})

	// FeedPagesLoaded counts feed pages merged into the accumulated feed.
	FeedPagesLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memefeed_feed_pages_loaded_total",
		Help: "Total number of feed pages loaded",
	})

	// CommentPagesLoaded counts comment pages fetched across all threads.
	CommentPagesLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memefeed_comment_pages_loaded_total",
		Help: "Total number of comment pages loaded",
	})

	// AuthorCacheLookups counts author cache lookups by outcome
	// (hit, join, miss).
	AuthorCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memefeed_author_cache_lookups_total",
		Help: "Total author cache lookups by outcome",
	}, []string{"outcome"})
)

// TrackRequest returns a function that records request latency when called
// (e.g. defer).
func TrackRequest(endpoint string) func() {
	start := time.Now()
	return func() {
		APIRequestLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}
