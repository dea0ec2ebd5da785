package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BalanceCache caches user credit balances for read paths.
// A miss is reported with ok == false and a nil error.
//
// Every Delete bumps the user's generation. Readers that fill the cache from
// the database take the generation before the query and write back with
// SetIfGeneration, so a value loaded before an invalidation is never stored.
type BalanceCache interface {
	Get(ctx context.Context, userID uuid.UUID) (credits int64, ok bool, err error)
	Set(ctx context.Context, userID uuid.UUID, credits int64, ttl time.Duration) error
	Delete(ctx context.Context, userIDs ...uuid.UUID) error
	Generation(ctx context.Context, userID uuid.UUID) (uint64, error)
	SetIfGeneration(ctx context.Context, userID uuid.UUID, gen uint64, credits int64, ttl time.Duration) (bool, error)
}
