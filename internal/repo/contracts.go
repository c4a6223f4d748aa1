package repo

import (
	"context"
	"time"
)

type (
	// IdempotencyStore remembers event ids for a bounded time.
	// Backend failures are reported as errs.ErrStoreUnavailable.
	IdempotencyStore interface {
		Exists(ctx context.Context, key string) (bool, error)
		MarkSeen(ctx context.Context, key string, ttl time.Duration) error
	}

	// ExpiredRecordsCleaner is implemented by stores without native key expiry.
	ExpiredRecordsCleaner interface {
		DeleteExpired(ctx context.Context) (int64, error)
	}
)
