package strategy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swproxy_strategy_requests_total",
		Help: "Total requests served by namespace family, strategy and outcome",
	}, []string{"family", "strategy", "outcome"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "swproxy_fetch_duration_seconds",
		Help:    "Network fetch duration in seconds by namespace family",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"family"})
)
