package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/analytics-bridge/internal/entity"
	"github.com/andreyxaxa/analytics-bridge/internal/repo"
)

// DedupUseCase runs check-then-mark against the idempotency store.
//
// The two store calls are not atomic: two consumers handling the same event id
// at the same moment can both see Fresh, so the event is forwarded twice.
// The analytics endpoint tolerates repeats, delivery stays at-least-once.
//
// A Fresh mark is never rolled back. If forwarding fails afterwards, the
// redelivered message is classified Duplicate and committed without being
// forwarded.
type DedupUseCase struct {
	store repo.IdempotencyStore
	ttl   time.Duration
}

func New(store repo.IdempotencyStore, ttl time.Duration) *DedupUseCase {
	return &DedupUseCase{
		store: store,
		ttl:   ttl,
	}
}

func (uc *DedupUseCase) CheckAndMark(ctx context.Context, eventID string) (entity.DedupResult, error) {
	seen, err := uc.store.Exists(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("DedupUseCase - CheckAndMark - uc.store.Exists: %w", err)
	}

	if seen {
		return entity.Duplicate, nil
	}

	err = uc.store.MarkSeen(ctx, eventID, uc.ttl)
	if err != nil {
		return "", fmt.Errorf("DedupUseCase - CheckAndMark - uc.store.MarkSeen: %w", err)
	}

	return entity.Fresh, nil
}
