package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BreakerEnabled indicates whether submissions are allowed.
	BreakerEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chainhawk_circuit_breaker_enabled",
		Help: "Whether the circuit breaker allows submissions (1=enabled, 0=disabled)",
	})

	// BreakerBalance tracks the last checked native balance in wei.
	BreakerBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chainhawk_circuit_breaker_balance_wei",
		Help: "Last checked native balance of the funding account",
	})

	// BreakerStateChanges counts open/close transitions.
	BreakerStateChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainhawk_circuit_breaker_state_changes_total",
		Help: "Times the circuit breaker changed state",
	})

	// BreakerCheckDuration tracks balance check latency.
	BreakerCheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chainhawk_circuit_breaker_check_duration_seconds",
		Help:    "Time taken to check the funding account balance",
		Buckets: prometheus.DefBuckets,
	})
)
