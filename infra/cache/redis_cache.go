package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/amirasaad/marketledger/pkg/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const generationTTL = 24 * time.Hour

// setIfGeneration writes KEYS[1] only while the generation counter in KEYS[2]
// still equals ARGV[1].
var setIfGeneration = redis.NewScript(`
local g = redis.call('GET', KEYS[2]) or '0'
if g ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// RedisBalanceCache implements BalanceCache using Redis strings.
type RedisBalanceCache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisBalanceCache wraps an existing client.
func NewRedisBalanceCache(client *redis.Client, prefix string, logger *slog.Logger) *RedisBalanceCache {
	return &RedisBalanceCache{client: client, prefix: prefix, logger: logger.With("cache", "redis")}
}

func (r *RedisBalanceCache) key(userID uuid.UUID) string {
	return r.prefix + "balance:" + userID.String()
}

func (r *RedisBalanceCache) genKey(userID uuid.UUID) string {
	return r.prefix + "balance-gen:" + userID.String()
}

func (r *RedisBalanceCache) Get(ctx context.Context, userID uuid.UUID) (int64, bool, error) {
	val, err := r.client.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Redis cache miss", "user_id", userID)
		return 0, false, nil
	}
	if err != nil {
		r.logger.Error("Redis cache get error", "user_id", userID, "error", err)
		return 0, false, err
	}
	credits, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return credits, true, nil
}

func (r *RedisBalanceCache) Set(ctx context.Context, userID uuid.UUID, credits int64, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(userID), credits, ttl).Err(); err != nil {
		r.logger.Error("Redis cache set error", "user_id", userID, "error", err)
		return err
	}
	return nil
}

func (r *RedisBalanceCache) Delete(ctx context.Context, userIDs ...uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, r.key(id))
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, id := range userIDs {
			pipe.Incr(ctx, r.genKey(id))
			pipe.Expire(ctx, r.genKey(id), generationTTL)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Redis cache delete error", "keys", len(keys), "error", err)
		return err
	}
	return nil
}

func (r *RedisBalanceCache) Generation(ctx context.Context, userID uuid.UUID) (uint64, error) {
	gen, err := r.client.Get(ctx, r.genKey(userID)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *RedisBalanceCache) SetIfGeneration(
	ctx context.Context,
	userID uuid.UUID,
	gen uint64,
	credits int64,
	ttl time.Duration,
) (bool, error) {
	keys := []string{r.key(userID), r.genKey(userID)}
	stored, err := setIfGeneration.Run(ctx, r.client, keys, strconv.FormatUint(gen, 10), credits, ttl.Milliseconds()).Int()
	if err != nil {
		r.logger.Error("Redis cache conditional set error", "user_id", userID, "error", err)
		return false, err
	}
	return stored == 1, nil
}

var _ cache.BalanceCache = (*RedisBalanceCache)(nil)
