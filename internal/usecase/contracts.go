package usecase

import (
	"context"

	"github.com/andreyxaxa/analytics-bridge/internal/entity"
)

type (
	// DedupUseCase classifies an event id as seen or not and marks fresh ones.
	DedupUseCase interface {
		CheckAndMark(ctx context.Context, eventID string) (entity.DedupResult, error)
	}

	// MergeUseCase turns a raw event into the event analytics receives.
	// Implementations must be pure: no I/O and no mutation of raw.
	MergeUseCase interface {
		Merge(raw entity.RawEvent) (entity.EnrichedEvent, error)
	}

	// PipelineUseCase drives one consumed message to a terminal outcome.
	// A nil error means the message may be committed.
	PipelineUseCase interface {
		Process(ctx context.Context, value []byte) (eventID string, outcome entity.Outcome, err error)
	}

	IngestUseCase interface {
		Produce(ctx context.Context) error
	}
)
