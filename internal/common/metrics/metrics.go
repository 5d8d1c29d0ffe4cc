// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	LoanDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_decisions_total",
			Help: "Loan decisions produced, by outcome and risk tier",
		},
		[]string{"outcome", "risk_tier"},
	)

	LoanExplanationsDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loan_explanations_degraded_total",
			Help: "Decisions returned without factor explanations",
		},
	)

	LoanModelInvocationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loan_model_invocation_failures_total",
			Help: "Failed calls to the approval model",
		},
	)

	LoanDecisionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loan_decision_cache_hits_total",
			Help: "Explain jobs served from the decision cache",
		},
	)
)

// ObserveDecision counts one produced decision.
func ObserveDecision(outcome, riskTier string, explained bool) {
	LoanDecisions.WithLabelValues(outcome, riskTier).Inc()
	if !explained {
		LoanExplanationsDegraded.Inc()
	}
}
