package chain

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCCallsTotal tracks chain RPC calls by method and result.
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainhawk_rpc_calls_total",
			Help: "Total chain RPC calls",
		},
		[]string{"method", "result"},
	)

	// RPCCallDurationSeconds tracks chain RPC latency by method.
	RPCCallDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chainhawk_rpc_call_duration_seconds",
			Help:    "Chain RPC call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func observeRPC(method string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	RPCCallsTotal.WithLabelValues(method, result).Inc()
	RPCCallDurationSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
