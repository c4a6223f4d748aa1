package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/andreyxaxa/analytics-bridge/internal/entity"
	"github.com/andreyxaxa/analytics-bridge/internal/infrastructure"
	"github.com/andreyxaxa/analytics-bridge/pkg/logger"
	"github.com/google/uuid"
)

const (
	EventTypeCustomerUpdate  = "CUSTOMER_UPDATE"
	EventTypeInventoryUpdate = "INVENTORY_UPDATE"

	SourceSystemCRM       = "CRM"
	SourceSystemInventory = "INVENTORY"
)

// Stream binds an upstream system to the topic its records are published on.
type Stream struct {
	Fetcher      infrastructure.RecordsFetcher
	Topic        string
	EventType    string
	SourceSystem string
}

// IngestUseCase wraps upstream records as raw events and publishes them.
type IngestUseCase struct {
	streams []Stream
	es      infrastructure.EventsSender
	logger  logger.Interface

	now   func() time.Time
	newID func() string
}

func New(es infrastructure.EventsSender, l logger.Interface, streams ...Stream) *IngestUseCase {
	return &IngestUseCase{
		streams: streams,
		es:      es,
		logger:  l,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Produce publishes one round of every stream. A failing stream does not stop the others;
// their errors are joined.
func (uc *IngestUseCase) Produce(ctx context.Context) error {
	var produceErrors []error

	for _, s := range uc.streams {
		err := uc.produce(ctx, s)
		if err != nil {
			uc.logger.Error(err, "IngestUseCase - Produce - topic %s", s.Topic)

			produceErrors = append(produceErrors, err)
		}
	}

	return errors.Join(produceErrors...)
}

func (uc *IngestUseCase) produce(ctx context.Context, s Stream) error {
	records, err := s.Fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("IngestUseCase - produce - s.Fetcher.Fetch: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	events := make([]*entity.RawEvent, 0, len(records))
	for _, record := range records {
		events = append(events, uc.wrap(s, record))
	}

	err = uc.es.SendEvents(ctx, s.Topic, events)
	if err != nil {
		return fmt.Errorf("IngestUseCase - produce - uc.es.SendEvents: %w", err)
	}

	uc.logger.Info("Published %d %s events to %s", len(events), s.EventType, s.Topic)

	return nil
}

func (uc *IngestUseCase) wrap(s Stream, record json.RawMessage) *entity.RawEvent {
	return &entity.RawEvent{
		EventID:      uc.newID(),
		EventType:    s.EventType,
		SourceSystem: s.SourceSystem,
		Timestamp:    json.RawMessage(strconv.Quote(uc.now().UTC().Format(time.RFC3339))),
		Payload:      record,
	}
}
