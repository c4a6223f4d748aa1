package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/andreyxaxa/analytics-bridge/internal/entity"
	"github.com/segmentio/kafka-go"
)

type (
	EventsReceiver interface {
		ReadEvent(ctx context.Context) (kafka.Message, error)
		CommitEvent(ctx context.Context, event kafka.Message) error
		Close() error
	}

	EventsSender interface {
		SendEvents(ctx context.Context, topic string, events []*entity.RawEvent) error
		Close() error
	}

	AnalyticsForwarder interface {
		Forward(ctx context.Context, event entity.EnrichedEvent) error
	}

	// RecordsFetcher pulls the current records of an upstream system (CRM, inventory).
	RecordsFetcher interface {
		Fetch(ctx context.Context) ([]json.RawMessage, error)
	}
)
