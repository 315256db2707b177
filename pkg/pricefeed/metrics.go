package pricefeed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainhawk_pricefeed_lookups_total",
			Help: "Total oracle price lookups by result",
		},
		[]string{"result"},
	)
)
