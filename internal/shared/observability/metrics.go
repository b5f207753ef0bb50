package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codequery_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	ParseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codequery_parse_errors_total",
		Help: "Total number of source files that failed to parse.",
	})

	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codequery_resolutions_total",
		Help: "Resolution attempts by component and outcome.",
	}, []string{"component", "outcome"})

	ResolutionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codequery_resolution_failures_total",
		Help: "Recorded per-item failures by error code.",
	}, []string{"code"})

	NameCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codequery_name_cache_hits_total",
		Help: "Qualified-name lookups answered from the session cache.",
	})

	HierarchyNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codequery_hierarchy_nodes",
		Help: "Number of nodes in the last built type hierarchy.",
	})

	HierarchyPlaceholders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codequery_hierarchy_placeholders",
		Help: "Number of external placeholder nodes in the last built type hierarchy.",
	})

	OverriddenMethods = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codequery_overridden_methods",
		Help: "Number of methods marked as overriding in the last analysis.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codequery_analysis_seconds",
		Help:    "Time spent on analysis passes.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codequery_queries_total",
		Help: "Executed queries by action.",
	}, []string{"action"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codequery_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatchRebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codequery_watch_rebuilds_total",
		Help: "Analysis rebuilds triggered by watch mode, by outcome.",
	}, []string{"outcome"})
)
