package mempool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesReceivedTotal tracks subscription notifications received.
	MessagesReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainhawk_mempool_messages_received_total",
		Help: "Total pending-transaction notifications received",
	})

	// TxResolutionsTotal tracks body lookups by result.
	TxResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainhawk_mempool_tx_resolutions_total",
			Help: "Total pending-transaction body resolutions",
		},
		[]string{"result"},
	)

	// DroppedTxTotal tracks transactions dropped due to a full channel.
	DroppedTxTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainhawk_mempool_dropped_tx_total",
		Help: "Total pending transactions dropped due to backpressure",
	})

	// ReconnectAttemptsTotal tracks reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainhawk_mempool_reconnect_attempts_total",
		Help: "Total mempool feed reconnection attempts",
	})

	// ReconnectFailuresTotal tracks failed reconnection attempts.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainhawk_mempool_reconnect_failures_total",
		Help: "Total mempool feed reconnection failures",
	})
)
