package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainhawk_orchestrator_attempts_total",
			Help: "Total plan submission attempts by strategy kind",
		},
		[]string{"kind"},
	)

	OutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainhawk_orchestrator_outcomes_total",
			Help: "Total terminal plan outcomes",
		},
		[]string{"outcome"},
	)

	StateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainhawk_orchestrator_state_transitions_total",
			Help: "Total state machine transitions",
		},
		[]string{"state"},
	)

	PlanBuildFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainhawk_orchestrator_plan_build_failures_total",
		Help: "Total failures turning an accepted opportunity into a plan",
	})
)
