package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	EmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainhawk_scanner_opportunities_emitted_total",
			Help: "Total opportunities forwarded to the pipeline by kind",
		},
		[]string{"kind"},
	)

	DroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainhawk_scanner_opportunities_dropped_total",
			Help: "Total opportunities dropped due to a saturated pipeline",
		},
		[]string{"kind"},
	)

	PollFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainhawk_scanner_poll_failures_total",
			Help: "Total failed poll ticks by kind",
		},
		[]string{"kind"},
	)

	InspectFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainhawk_scanner_inspect_failures_total",
			Help: "Total failed pending-transaction inspections by kind",
		},
		[]string{"kind"},
	)
)
