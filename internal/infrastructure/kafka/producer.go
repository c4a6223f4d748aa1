package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andreyxaxa/analytics-bridge/internal/entity"
	"github.com/andreyxaxa/analytics-bridge/pkg/kafka/producer"
	"github.com/segmentio/kafka-go"
)

const eventIDHeader = "event_id"

// EventProducer publishes raw events keyed by their event id.
type EventProducer struct {
	*producer.Producer
}

func NewEventProducer(p *producer.Producer) *EventProducer {
	return &EventProducer{p}
}

func (ep *EventProducer) SendEvents(ctx context.Context, topic string, events []*entity.RawEvent) error {
	msgsToSend := make([]kafka.Message, 0, len(events))

	for _, event := range events {
		value, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("EventProducer - SendEvents - json.Marshal: %w", err)
		}

		msgsToSend = append(msgsToSend, kafka.Message{
			Topic: topic,
			Key:   []byte(event.EventID),
			Value: value,
			Headers: []kafka.Header{
				{Key: eventIDHeader, Value: []byte(event.EventID)},
			},
		})
	}

	if len(msgsToSend) == 0 {
		return nil
	}

	err := ep.Writer.WriteMessages(ctx, msgsToSend...)
	if err != nil {
		return fmt.Errorf("EventProducer - SendEvents - ep.Writer.WriteMessages: %w", err)
	}

	publishedTotal.WithLabelValues(topic).Add(float64(len(msgsToSend)))

	return nil
}

func (ep *EventProducer) Close() error {
	err := ep.Producer.Close()
	if err != nil {
		return fmt.Errorf("EventProducer - Close: %w", err)
	}

	return nil
}
