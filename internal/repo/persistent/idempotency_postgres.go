package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/analytics-bridge/pkg/postgres"
	"github.com/andreyxaxa/analytics-bridge/pkg/types/errs"
)

const (
	// Table
	dedupTable = "dedup_records"

	// Columns
	dedupEventIDColumn   = "event_id"
	dedupExpiresAtColumn = "expires_at"
)

// PostgresIdempotencyStore emulates key expiry with an expires_at column.
// Expired rows are ignored by Exists and purged by DeleteExpired.
type PostgresIdempotencyStore struct {
	*postgres.Postgres
	now func() time.Time
}

func NewPostgresIdempotencyStore(pg *postgres.Postgres) *PostgresIdempotencyStore {
	return &PostgresIdempotencyStore{pg, time.Now}
}

func (s *PostgresIdempotencyStore) Exists(ctx context.Context, key string) (bool, error) {
	sql, args, err := s.Builder.
		Select("COUNT(1) > 0").
		From(dedupTable).
		Where(squirrel.Eq{dedupEventIDColumn: key}).
		Where(squirrel.Gt{dedupExpiresAtColumn: s.now().UTC()}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("PostgresIdempotencyStore - Exists - s.Builder.ToSql: %w", err)
	}

	var exists bool

	err = s.Pool.QueryRow(ctx, sql, args...).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("PostgresIdempotencyStore - Exists - QueryRow: %w: %w", errs.ErrStoreUnavailable, err)
	}

	return exists, nil
}

func (s *PostgresIdempotencyStore) MarkSeen(ctx context.Context, key string, ttl time.Duration) error {
	expiresAt := s.now().UTC().Add(ttl)

	sql, args, err := s.Builder.
		Insert(dedupTable).
		Columns(dedupEventIDColumn, dedupExpiresAtColumn).
		Values(key, expiresAt).
		Suffix("ON CONFLICT (" + dedupEventIDColumn + ") DO UPDATE SET " +
			dedupExpiresAtColumn + " = EXCLUDED." + dedupExpiresAtColumn).
		ToSql()
	if err != nil {
		return fmt.Errorf("PostgresIdempotencyStore - MarkSeen - s.Builder.ToSql: %w", err)
	}

	_, err = s.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("PostgresIdempotencyStore - MarkSeen - Exec: %w: %w", errs.ErrStoreUnavailable, err)
	}

	return nil
}

func (s *PostgresIdempotencyStore) DeleteExpired(ctx context.Context) (int64, error) {
	sql, args, err := s.Builder.
		Delete(dedupTable).
		Where(squirrel.LtOrEq{dedupExpiresAtColumn: s.now().UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("PostgresIdempotencyStore - DeleteExpired - s.Builder.ToSql: %w", err)
	}

	tag, err := s.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("PostgresIdempotencyStore - DeleteExpired - Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}
