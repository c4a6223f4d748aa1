package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andreyxaxa/analytics-bridge/pkg/kafka/broker"
	"github.com/segmentio/kafka-go"
)

const (
	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second
	_defaultMaxWait      = time.Second
	_defaultDialTimeout  = 10 * time.Second
	_maxBytes            = 10e6
)

// Consumer is a consumer-group reader subscribed to one or more topics.
// Offsets are never auto-committed: callers commit through Reader.CommitMessages.
type Consumer struct {
	connAttempts int
	connTimeout  time.Duration
	maxWait      time.Duration
	startOffset  int64

	groupID string
	topics  []string

	Reader *kafka.Reader
}

func New(ctx context.Context, brokers []string, groupID string, topics []string, opts ...Option) (*Consumer, error) {
	if len(topics) == 0 {
		return nil, errors.New("Kafka Consumer - New - no topics")
	}

	c := &Consumer{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
		maxWait:      _defaultMaxWait,
		startOffset:  kafka.FirstOffset,
		groupID:      groupID,
		topics:       topics,
	}

	for _, opt := range opts {
		opt(c)
	}

	err := broker.Await(ctx, "Consumer", brokers, c.connAttempts, c.connTimeout)
	if err != nil {
		return nil, fmt.Errorf("Kafka Consumer - New - broker.Await: %w", err)
	}

	// CommitInterval stays zero: commits are synchronous and explicit.
	// MinBytes 1 hands every record to the controller as soon as it lands.
	c.Reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     c.groupID,
		GroupTopics: c.topics,
		MinBytes:    1,
		MaxBytes:    _maxBytes,
		MaxWait:     c.maxWait,
		StartOffset: c.startOffset,
		Dialer: &kafka.Dialer{
			Timeout:   _defaultDialTimeout,
			DualStack: true,
		},
	})

	return c, nil
}

func (c *Consumer) Topics() []string {
	return c.topics
}

func (c *Consumer) GroupID() string {
	return c.groupID
}

func (c *Consumer) Close() error {
	if c.Reader == nil {
		return nil
	}

	return c.Reader.Close()
}
