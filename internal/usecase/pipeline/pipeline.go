package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andreyxaxa/analytics-bridge/internal/entity"
	"github.com/andreyxaxa/analytics-bridge/internal/infrastructure"
	"github.com/andreyxaxa/analytics-bridge/internal/usecase"
	"github.com/andreyxaxa/analytics-bridge/pkg/logger"
	"github.com/andreyxaxa/analytics-bridge/pkg/types/errs"
)

// PipelineUseCase runs dedup -> merge -> forward for one message value.
type PipelineUseCase struct {
	dedup     usecase.DedupUseCase
	merger    usecase.MergeUseCase
	forwarder infrastructure.AnalyticsForwarder

	logger logger.Interface
}

func New(
	dedup usecase.DedupUseCase,
	merger usecase.MergeUseCase,
	forwarder infrastructure.AnalyticsForwarder,
	l logger.Interface,
) *PipelineUseCase {
	return &PipelineUseCase{
		dedup:     dedup,
		merger:    merger,
		forwarder: forwarder,
		logger:    l,
	}
}

// Process returns the event id as soon as it is known so failures can be traced.
func (uc *PipelineUseCase) Process(ctx context.Context, value []byte) (string, entity.Outcome, error) {
	var raw entity.RawEvent

	err := json.Unmarshal(value, &raw)
	if err != nil {
		return peekEventID(value), "", fmt.Errorf("PipelineUseCase - Process - json.Unmarshal: %w: %w", errs.ErrMalformedEvent, err)
	}

	// without an id there is nothing to deduplicate on
	if raw.EventID == "" {
		return "", "", fmt.Errorf("PipelineUseCase - Process: %w: eventId is missing", errs.ErrMalformedEvent)
	}

	// 1. dedup
	res, err := uc.dedup.CheckAndMark(ctx, raw.EventID)
	if err != nil {
		return raw.EventID, "", fmt.Errorf("PipelineUseCase - Process - uc.dedup.CheckAndMark: %w", err)
	}

	if res == entity.Duplicate {
		uc.logger.Warn("Duplicate event detected: %s", raw.EventID)

		return raw.EventID, entity.OutcomeDuplicate, nil
	}

	// 2. merge
	enriched, err := uc.merger.Merge(raw)
	if err != nil {
		return raw.EventID, "", fmt.Errorf("PipelineUseCase - Process - uc.merger.Merge: %w", err)
	}

	// 3. forward
	err = uc.forwarder.Forward(ctx, enriched)
	if err != nil {
		return raw.EventID, "", fmt.Errorf("PipelineUseCase - Process - uc.forwarder.Forward: %w", err)
	}

	return raw.EventID, entity.OutcomeForwarded, nil
}

// peekEventID pulls eventId out of a value whose other fields failed to decode,
// so the failure can still be traced to an event.
func peekEventID(value []byte) string {
	var fields map[string]json.RawMessage
	if json.Unmarshal(value, &fields) != nil {
		return ""
	}

	var id string
	_ = json.Unmarshal(fields["eventId"], &id)

	return id
}
