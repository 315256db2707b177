package strategy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	OpportunitiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainhawk_strategy_opportunities_total",
			Help: "Total opportunities emitted by strategy kind",
		},
		[]string{"kind"},
	)

	CandidateFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainhawk_strategy_candidate_failures_total",
			Help: "Total per-candidate inspection failures by strategy kind",
		},
		[]string{"kind"},
	)
)
