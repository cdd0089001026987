// Package metrics provides Prometheus observability metrics for the schedule importer.
// It covers the parser, the scheduling pipeline and per-file import outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// PARSER METRICS
// =============================================================================

// ParserRecordsTotal tracks rows that were placed into a day bucket.
var ParserRecordsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "records_total",
	Help:      "Total CSV records successfully parsed",
})

// ParserRowsSkippedTotal tracks rows dropped for an unrecognised day of week.
var ParserRowsSkippedTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "rows_skipped_total",
	Help:      "Total CSV records dropped because their day of week was not recognised",
})

// ParserErrorsTotal tracks fatal parse errors by error type.
var ParserErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "errors_total",
	Help:      "Total parse errors by error type",
}, []string{"error_type"})

// ParserDurationSeconds tracks time to parse input files.
var ParserDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "parser",
	Name:      "duration_seconds",
	Help:      "Time taken to parse CSV input file",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
})

// =============================================================================
// SCHEDULER METRICS
// =============================================================================

// SchedulerLevelsTotal tracks escalation levels produced.
var SchedulerLevelsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "levels_total",
	Help:      "Total escalation levels produced by the level splitter",
})

// SchedulerVariantsTotal tracks schedule variants produced, including variant 1.
var SchedulerVariantsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "variants_total",
	Help:      "Total schedule variants produced by the overlap resolver",
})

// SchedulerMultiPeriodsTotal tracks time periods covered by more than one assignee.
var SchedulerMultiPeriodsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "multi_periods_total",
	Help:      "Total time periods with more than one occupant",
})

// SchedulerDurationSeconds tracks time to build the schedules of one file.
var SchedulerDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "scheduler",
	Name:      "duration_seconds",
	Help:      "Time taken to build the schedules of one file",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
})

// =============================================================================
// IMPORTER METRICS
// =============================================================================

// ImporterFilesTotal tracks processed files by outcome ("ok" or "failed").
var ImporterFilesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "importer",
	Name:      "files_total",
	Help:      "Total input files processed by outcome",
}, []string{"status"})
