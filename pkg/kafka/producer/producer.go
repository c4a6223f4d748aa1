package producer

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/analytics-bridge/pkg/kafka/broker"
	"github.com/segmentio/kafka-go"
)

const (
	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second
	_defaultWriteTimeout = 10 * time.Second
	_defaultBatchTimeout = 50 * time.Millisecond
	_defaultMaxAttempts  = 5
)

// Producer writes keyed messages; the topic is set per message.
type Producer struct {
	connAttempts int
	connTimeout  time.Duration
	writeTimeout time.Duration
	batchTimeout time.Duration
	maxAttempts  int

	Writer *kafka.Writer
}

func New(ctx context.Context, brokers []string, opts ...Option) (*Producer, error) {
	p := &Producer{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
		writeTimeout: _defaultWriteTimeout,
		batchTimeout: _defaultBatchTimeout,
		maxAttempts:  _defaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(p)
	}

	err := broker.Await(ctx, "Producer", brokers, p.connAttempts, p.connTimeout)
	if err != nil {
		return nil, fmt.Errorf("Kafka Producer - New - broker.Await: %w", err)
	}

	// Hash keeps every event id on a stable partition.
	p.Writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  p.maxAttempts,
		WriteTimeout: p.writeTimeout,
		BatchTimeout: p.batchTimeout,
	}

	return p, nil
}

func (p *Producer) Close() error {
	if p.Writer == nil {
		return nil
	}

	return p.Writer.Close()
}
