package funding

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	FundingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainhawk_funding_plans_total",
			Help: "Total plan funding requests by result",
		},
		[]string{"result"},
	)
)
