// Package metrics provides Prometheus observability for the coverage audit
// service: parse volume and failures, per-row drop reasons and gap
// computation activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory registers metrics against our custom Registry directly
var factory = promauto.With(Registry)

// ParsesTotal counts completed file parses by source format.
var ParsesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coverage",
	Name:      "parses_total",
	Help:      "Number of call files parsed successfully, by source format",
}, []string{"format"})

// ParseErrorsTotal counts whole-parse failures by source format. The
// "unknown" format label covers files rejected before dispatch.
var ParseErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coverage",
	Name:      "parse_errors_total",
	Help:      "Number of call file parses that failed outright, by source format",
}, []string{"format"})

// RowsDroppedTotal counts rows silently excluded during extraction. These
// drops are invisible in the parse result itself; this counter is the only
// place they surface.
var RowsDroppedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coverage",
	Name:      "rows_dropped_total",
	Help:      "Number of vendor rows dropped during extraction, by format and reason",
}, []string{"format", "reason"})

// CallsRetainedTotal counts canonical call records that entered the model.
var CallsRetainedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coverage",
	Name:      "calls_retained_total",
	Help:      "Number of canonical call records retained from parsed files, by source format",
}, []string{"format"})

// GapComputationsTotal counts per-agent gap computations, including
// recomputations triggered by office-hours edits.
var GapComputationsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "coverage",
	Name:      "gap_computations_total",
	Help:      "Number of per-agent gap computations performed",
})

// RebuildsTotal counts parse results reconstructed from persisted rows.
var RebuildsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "coverage",
	Name:      "rebuilds_total",
	Help:      "Number of parse results rebuilt from stored canonical rows",
})

// ParseDurationSeconds observes end-to-end parse latency by source format.
var ParseDurationSeconds = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "coverage",
	Name:      "parse_duration_seconds",
	Help:      "End-to-end call file parse duration in seconds, by source format",
	Buckets:   prometheus.DefBuckets,
}, []string{"format"})

// Handler serves the registry in Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
