package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_analytics_attempts_total",
		Help: "Delivery attempts to the analytics endpoint by result",
	}, []string{"result"})
	forwardsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_analytics_forwards_total",
		Help: "Events forwarded to analytics after retries, by result",
	}, []string{"result"})
	attemptDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bridge_analytics_attempt_duration_seconds",
		Help:    "Round trip of a delivery attempt that got a response",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
)
