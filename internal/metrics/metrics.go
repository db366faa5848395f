package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "plex_letterboxd"

// Plex API metrics
var (
	PlexRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plex_requests_total",
			Help:      "Total number of requests sent to the Plex server, by endpoint and HTTP status.",
		},
		[]string{"endpoint", "status"},
	)

	PlexRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plex_request_duration_seconds",
			Help:      "Latency of Plex API requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	PlexRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plex_retries_total",
			Help:      "Total number of retried Plex requests.",
		},
		[]string{"endpoint"},
	)
)

// Pipeline metrics
var (
	HistoryPagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_pages_total",
			Help:      "Total number of watch history pages fetched.",
		},
	)

	ItemsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_processed_total",
			Help:      "Total number of history entries processed, by outcome.",
		},
		[]string{"outcome"},
	)

	LastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last export run finished.",
		},
	)

	LastRunAborted = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_aborted",
			Help:      "1 if the last export run stopped on a fatal error, 0 otherwise.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		PlexRequestsTotal,
		PlexRequestDuration,
		PlexRetriesTotal,
		HistoryPagesTotal,
		ItemsProcessedTotal,
		LastRunTimestamp,
		LastRunAborted,
	)
}

// StatusLabel turns an HTTP status into the status label value. Zero means no
// response was received.
func StatusLabel(statusCode int) string {
	if statusCode == 0 {
		return "error"
	}
	return strconv.Itoa(statusCode)
}
