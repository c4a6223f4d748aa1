package kafka

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/analytics-bridge/pkg/kafka/consumer"
	"github.com/segmentio/kafka-go"
)

// EventConsumer reads raw events from the customer and inventory topics and
// reports per-partition progress.
type EventConsumer struct {
	*consumer.Consumer
}

func NewEventConsumer(c *consumer.Consumer) *EventConsumer {
	return &EventConsumer{c}
}

func (ec *EventConsumer) ReadEvent(ctx context.Context) (kafka.Message, error) {
	msg, err := ec.Reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("EventConsumer - ReadEvent - ec.Reader.FetchMessage: %w", err)
	}

	// HighWaterMark is the offset the next produced message will get.
	if lag := msg.HighWaterMark - msg.Offset - 1; lag >= 0 {
		partitionLag.WithLabelValues(msg.Topic, partitionLabel(msg.Partition)).Set(float64(lag))
	}

	return msg, nil
}

// CommitEvent moves the group offset of the event's partition past the event.
func (ec *EventConsumer) CommitEvent(ctx context.Context, event kafka.Message) error {
	err := ec.Reader.CommitMessages(ctx, event)
	if err != nil {
		return fmt.Errorf("EventConsumer - CommitEvent - ec.Reader.CommitMessages %s/%d@%d: %w",
			event.Topic, event.Partition, event.Offset, err)
	}

	committedOffset.WithLabelValues(event.Topic, partitionLabel(event.Partition)).Set(float64(event.Offset))

	return nil
}

func (ec *EventConsumer) Close() error {
	err := ec.Consumer.Close()
	if err != nil {
		return fmt.Errorf("EventConsumer - Close - group %s: %w", ec.GroupID(), err)
	}

	return nil
}
