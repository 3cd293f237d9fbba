package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Indexing metrics
	IndexedRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logsift_indexed_records_total",
			Help: "Total number of log records written to the store",
		},
	)

	IndexedFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logsift_indexed_files_total",
			Help: "Total number of log files processed by indexing jobs",
		},
	)

	StoreBulkWritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logsift_store_bulk_writes_total",
			Help: "Total number of bulk write batches sent to the store",
		},
	)

	// Query metrics
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logsift_search_requests_total",
			Help: "Total number of search requests by query type",
		},
		[]string{"type"},
	)

	AnalyzeRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logsift_analyze_runs_total",
			Help: "Total number of analyze runs",
		},
	)

	// Notification metrics
	NotificationsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logsift_notifications_sent_total",
			Help: "Total number of notification message parts delivered",
		},
	)

	NotificationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logsift_notification_errors_total",
			Help: "Total number of failed notification deliveries",
		},
	)
)

// Query type label values for SearchRequestsTotal.
const (
	QueryTypeSimple   = "simple"
	QueryTypeExtended = "extended"
)
