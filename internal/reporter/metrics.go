package reporter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsTotal counts reported outcome events by outcome.
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainhawk_reporter_events_total",
			Help: "Terminal plan outcomes reported, by outcome",
		},
		[]string{"outcome"},
	)

	// CumulativeProfit tracks running realized profit in wei. Float precision
	// is fine for a dashboard gauge; the ledger keeps the exact integer.
	CumulativeProfit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chainhawk_reporter_cumulative_profit_wei",
			Help: "Cumulative realized profit and loss in wei",
		},
	)

	// SinkFailuresTotal counts failed outcome deliveries to sinks.
	SinkFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chainhawk_reporter_sink_failures_total",
			Help: "Outcome sink deliveries that failed",
		},
	)
)
