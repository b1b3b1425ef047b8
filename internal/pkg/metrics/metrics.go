// Package metrics holds the Prometheus collectors shared by the scraper, the
// notifier and the storage sinks.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Polls = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bacbo_polls_total",
		Help: "poll loop iterations",
	})
	PollErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bacbo_poll_errors_total",
		Help: "poll iterations that ended with an unexpected error",
	})
	PollDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bacbo_poll_duration_seconds",
		Help:    "time spent in one poll iteration",
		Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
	})
	StrategyHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bacbo_extract_strategy_hits_total",
		Help: "percentage slots filled, by extraction strategy",
	}, []string{"strategy"})
	StrategyErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bacbo_extract_strategy_errors_total",
		Help: "extraction strategy failures, by strategy",
	}, []string{"strategy"})
	Emissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bacbo_emissions_total",
		Help: "notifications queued, by kind",
	}, []string{"kind"})
	DeliveryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bacbo_delivery_failures_total",
		Help: "notifications dropped after all attempts",
	})
	SnapshotsRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bacbo_snapshots_recorded_total",
		Help: "snapshots forwarded to the sinks",
	})
	SnapshotsSuppressed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bacbo_snapshots_suppressed_total",
		Help: "consecutive duplicate snapshots skipped",
	})
	SinkErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bacbo_sink_errors_total",
		Help: "snapshot sink write failures, by sink",
	}, []string{"sink"})
)

// MustRegister registers every collector with reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		Polls,
		PollErrors,
		PollDuration,
		StrategyHits,
		StrategyErrors,
		Emissions,
		DeliveryFailures,
		SnapshotsRecorded,
		SnapshotsSuppressed,
		SinkErrors,
	)
}
