package merge

import (
	"bytes"
	"fmt"

	"github.com/andreyxaxa/analytics-bridge/internal/entity"
	"github.com/andreyxaxa/analytics-bridge/pkg/types/errs"
)

// IdentityMerger forwards the five event fields unchanged.
// A join of customer and inventory records would replace it behind usecase.MergeUseCase.
type IdentityMerger struct{}

func New() *IdentityMerger {
	return &IdentityMerger{}
}

func (m *IdentityMerger) Merge(raw entity.RawEvent) (entity.EnrichedEvent, error) {
	if err := Validate(raw); err != nil {
		return entity.EnrichedEvent{}, fmt.Errorf("IdentityMerger - Merge: %w", err)
	}

	return entity.EnrichedEvent{
		EventID:      raw.EventID,
		EventType:    raw.EventType,
		SourceSystem: raw.SourceSystem,
		Timestamp:    bytes.Clone(raw.Timestamp),
		Payload:      bytes.Clone(raw.Payload),
	}, nil
}

// Validate reports the first required field missing from raw.
// A timestamp or payload given as JSON null counts as missing; any other
// timestamp value (string or epoch number) passes through unchanged.
func Validate(raw entity.RawEvent) error {
	switch {
	case raw.EventID == "":
		return fmt.Errorf("%w: eventId is missing", errs.ErrMalformedEvent)
	case raw.EventType == "":
		return fmt.Errorf("%w: eventType is missing", errs.ErrMalformedEvent)
	case raw.SourceSystem == "":
		return fmt.Errorf("%w: sourceSystem is missing", errs.ErrMalformedEvent)
	case absent(raw.Timestamp) || bytes.Equal(bytes.TrimSpace(raw.Timestamp), []byte(`""`)):
		return fmt.Errorf("%w: timestamp is missing", errs.ErrMalformedEvent)
	case absent(raw.Payload):
		return fmt.Errorf("%w: payload is missing", errs.ErrMalformedEvent)
	}

	return nil
}

func absent(v []byte) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}
