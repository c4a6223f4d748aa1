package kafka

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	committedOffset = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bridge_kafka_committed_offset",
		Help: "Last offset committed by this process, by topic and partition.",
	}, []string{"topic", "partition"})

	partitionLag = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bridge_kafka_partition_lag",
		Help: "Messages behind the high water mark at the last fetch, by topic and partition.",
	}, []string{"topic", "partition"})

	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_kafka_published_total",
		Help: "Raw events written by the producer, by topic.",
	}, []string{"topic"})
)

func partitionLabel(partition int) string {
	return strconv.Itoa(partition)
}
