// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchRunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_runs_completed_total",
			Help: "Total number of completed match runs",
		},
		[]string{"trigger"},
	)

	MatchRunsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_runs_failed_total",
			Help: "Total number of failed match runs",
		},
		[]string{"trigger", "error_code"},
	)

	MatchRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "match_run_duration_seconds",
			Help: "Duration of a full match run in seconds",
		},
		[]string{"trigger"},
	)

	MatchRunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "match_runs_active",
			Help: "Number of match runs currently in flight",
		},
	)

	CandidatesEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_candidates_evaluated_total",
			Help: "Total number of candidates scored across all runs",
		},
	)

	CandidatesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_candidates_skipped_total",
			Help: "Total number of candidates skipped due to evaluation failures",
		},
		[]string{"error_code"},
	)
)
