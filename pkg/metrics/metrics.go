package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "intelliwatt_"

// Estimate outcomes.
const (
	OutcomeComputed      = "computed"
	OutcomeCacheHit      = "cache_hit"
	OutcomeNotComputable = "not_computable"
	OutcomeFailed        = "failed"
)

var (
	registerOnce sync.Once

	estimateOutcomes *prometheus.CounterVec
	estimateLatency  prometheus.Histogram

	gateRefusals *prometheus.CounterVec

	batchRuns         prometheus.Counter
	batchDeadlineHits prometheus.Counter
)

// Init registers the estimate metrics once.
func Init() {
	registerOnce.Do(func() {
		estimateOutcomes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "estimates_total",
				Help: "Estimate requests by outcome",
			},
			[]string{"outcome"},
		)
		estimateLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "estimate_latency_seconds",
				Help:    "Fresh estimate computation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)
		gateRefusals = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "gate_refusals_total",
				Help: "Computability gate refusals by reason",
			},
			[]string{"reason"},
		)
		batchRuns = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "batch_runs_total",
				Help: "Batch estimation runs",
			},
		)
		batchDeadlineHits = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "batch_deadline_hits_total",
				Help: "Batch runs that ran out of budget before finishing",
			},
		)

		prometheus.MustRegister(
			estimateOutcomes,
			estimateLatency,
			gateRefusals,
			batchRuns,
			batchDeadlineHits,
		)
	})
}

// Handler returns the scrape handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncEstimate records one estimate request outcome.
func IncEstimate(outcome string) {
	if estimateOutcomes != nil {
		estimateOutcomes.WithLabelValues(outcome).Inc()
	}
}

// ObserveEstimateLatency records how long a fresh computation took.
func ObserveEstimateLatency(d time.Duration) {
	if estimateLatency != nil {
		estimateLatency.Observe(d.Seconds())
	}
}

// IncGateRefusal records a computability refusal by reason.
func IncGateRefusal(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if gateRefusals != nil {
		gateRefusals.WithLabelValues(reason).Inc()
	}
}

// IncBatchRun records a batch estimation run, and whether it hit its
// wall-clock budget.
func IncBatchRun(deadlineHit bool) {
	if batchRuns != nil {
		batchRuns.Inc()
	}
	if deadlineHit && batchDeadlineHits != nil {
		batchDeadlineHits.Inc()
	}
}
