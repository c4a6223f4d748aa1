package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/analytics-bridge/pkg/redisclient"
	"github.com/andreyxaxa/analytics-bridge/pkg/types/errs"
)

const seenMarker = "1"

// RedisIdempotencyStore keeps one key per event id; expiry is left to redis.
type RedisIdempotencyStore struct {
	*redisclient.RedisClient
}

func NewRedisIdempotencyStore(rc *redisclient.RedisClient) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rc}
}

func (s *RedisIdempotencyStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.Client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("RedisIdempotencyStore - Exists - s.Client.Exists: %w: %w", errs.ErrStoreUnavailable, err)
	}

	return n > 0, nil
}

func (s *RedisIdempotencyStore) MarkSeen(ctx context.Context, key string, ttl time.Duration) error {
	err := s.Client.Set(ctx, key, seenMarker, ttl).Err()
	if err != nil {
		return fmt.Errorf("RedisIdempotencyStore - MarkSeen - s.Client.Set: %w: %w", errs.ErrStoreUnavailable, err)
	}

	return nil
}
