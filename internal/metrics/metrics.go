package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbgrid_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbgrid_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Bitmap cache metrics
var (
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbgrid_cache_hits_total",
			Help: "Total number of bitmap cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbgrid_cache_misses_total",
			Help: "Total number of bitmap cache misses",
		},
	)

	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbgrid_cache_evictions_total",
			Help: "Total number of bitmap cache evictions",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbgrid_cache_entries",
			Help: "Current number of entries in the bitmap cache",
		},
	)

	CacheClearsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbgrid_cache_clears_total",
			Help: "Total number of full bitmap cache clears",
		},
	)
)

// Scheduler metrics
var (
	SchedulerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbgrid_scheduler_queue_depth",
			Help: "Number of decode jobs waiting for a worker",
		},
	)

	SchedulerWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbgrid_scheduler_workers",
			Help: "Number of decode workers in the pool",
		},
	)

	SchedulerJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_scheduler_jobs_total",
			Help: "Total number of decode jobs by outcome",
		},
		[]string{"outcome"}, // "completed", "cancelled", "failed", "rejected"
	)

	DecodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thumbgrid_decode_duration_seconds",
			Help:    "Time spent decoding and resizing one source image",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

// Loader metrics
var (
	LoaderLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_loader_loads_total",
			Help: "Total number of loader load attempts by result",
		},
		[]string{"result"}, // "cache_hit", "scheduled", "noop"
	)

	LoaderCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbgrid_loader_cancellations_total",
			Help: "Total number of loader cancellations with a job outstanding",
		},
	)
)

// Enumerator metrics
var (
	EnumerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_enumerations_total",
			Help: "Total number of folder enumerations",
		},
		[]string{"status"}, // "success", "error"
	)

	EnumerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thumbgrid_enumeration_duration_seconds",
			Help:    "Time spent listing and ordering one folder",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	EnumerationItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thumbgrid_enumeration_items",
			Help:    "Number of image items returned per enumeration",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)

	CaptureTimeLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_capture_time_lookups_total",
			Help: "Capture time resolutions by source",
		},
		[]string{"source"}, // "index", "exif", "absent"
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_watcher_events_total",
			Help: "Filesystem watcher events by type",
		},
		[]string{"type"},
	)

	WatcherErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbgrid_watcher_errors_total",
			Help: "Filesystem watcher errors",
		},
	)
)

// Metadata index metrics
var (
	IndexQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_index_queries_total",
			Help: "Total number of metadata index queries",
		},
		[]string{"operation", "status"},
	)

	IndexQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbgrid_index_query_duration_seconds",
			Help:    "Metadata index query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)
