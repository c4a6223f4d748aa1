package kafka

import (
	"errors"

	"github.com/andreyxaxa/analytics-bridge/pkg/types/errs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	reasonMalformed        = "malformed"
	reasonStoreUnavailable = "store_unavailable"
	reasonDelivery         = "delivery"
	reasonCommit           = "commit"
	reasonPanic            = "panic"
	reasonOther            = "other"
)

var (
	consumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_events_consumed_total",
		Help: "Messages fetched from Kafka, by topic.",
	}, []string{"topic"})

	processedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_events_processed_total",
		Help: "Messages committed after a terminal outcome.",
	}, []string{"outcome"})

	failedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_events_failed_total",
		Help: "Processing attempts that left the offset uncommitted, by reason.",
	}, []string{"reason"})

	redeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_events_redelivered_total",
		Help: "Re-drives of an uncommitted message, by topic.",
	}, []string{"topic"})

	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bridge_event_processing_duration_seconds",
		Help:    "Time spent in the pipeline per message attempt.",
		Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 15, 30, 60, 120},
	})
)

func failureReason(err error) string {
	switch {
	case errors.Is(err, errs.ErrMalformedEvent):
		return reasonMalformed
	case errors.Is(err, errs.ErrStoreUnavailable):
		return reasonStoreUnavailable
	case errors.Is(err, errs.ErrDelivery):
		return reasonDelivery
	default:
		return reasonOther
	}
}
