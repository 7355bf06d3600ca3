package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/has99an/gtl-marketplace-search/pkg/errors"
)

// deleteBatchSize bounds how many keys a single DEL during pattern deletion
// may carry.
const deleteBatchSize = 500

// RedisAdapter implements Adapter on a Redis client.
type RedisAdapter struct {
	client *redis.Client
}

// NewRedisAdapter creates a Redis-backed store adapter.
func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

// wrap converts a Redis failure into a transient store error. redis.Nil is
// handled separately by the callers that care.
func wrap(op string, err error) error {
	return fmt.Errorf("redis %s: %w", op, errors.Join(apperrors.ErrUnavailable, err))
}

func (a *RedisAdapter) Get(ctx context.Context, key string) (string, error) {
	val, err := a.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("key %s: %w", key, apperrors.ErrNotFound)
		}
		return "", wrap("get", err)
	}
	return val, nil
}

func (a *RedisAdapter) GetMany(ctx context.Context, keys ...string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := a.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrap("mget", err)
	}

	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			// Missing keys are skipped; callers tolerate partial results.
			continue
		}
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (a *RedisAdapter) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := a.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return wrap("set", err)
	}
	return nil
}

func (a *RedisAdapter) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := a.client.Del(ctx, keys...).Err(); err != nil {
		return wrap("del", err)
	}
	return nil
}

func (a *RedisAdapter) DeletePattern(ctx context.Context, pattern string) error {
	iter := a.client.Scan(ctx, 0, pattern, 0).Iterator()

	batch := make([]string, 0, deleteBatchSize)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= deleteBatchSize {
			if err := a.client.Del(ctx, batch...).Err(); err != nil {
				return wrap("del", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return wrap("scan", err)
	}
	if len(batch) > 0 {
		if err := a.client.Del(ctx, batch...).Err(); err != nil {
			return wrap("del", err)
		}
	}
	return nil
}

func (a *RedisAdapter) SetAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := a.client.SAdd(ctx, key, args...).Err(); err != nil {
		return wrap("sadd", err)
	}
	return nil
}

func (a *RedisAdapter) SetRemove(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := a.client.SRem(ctx, key, args...).Err(); err != nil {
		return wrap("srem", err)
	}
	return nil
}

func (a *RedisAdapter) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := a.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, wrap("smembers", err)
	}
	return members, nil
}

func (a *RedisAdapter) SetCard(ctx context.Context, key string) (int64, error) {
	n, err := a.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, wrap("scard", err)
	}
	return n, nil
}

func (a *RedisAdapter) SetIntersect(ctx context.Context, keys ...string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	members, err := a.client.SInter(ctx, keys...).Result()
	if err != nil {
		return nil, wrap("sinter", err)
	}
	return members, nil
}

func (a *RedisAdapter) SortedSetAdd(ctx context.Context, key string, score float64, member string) error {
	if err := a.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return wrap("zadd", err)
	}
	return nil
}

func (a *RedisAdapter) SortedSetRemove(ctx context.Context, key string, member string) error {
	if err := a.client.ZRem(ctx, key, member).Err(); err != nil {
		return wrap("zrem", err)
	}
	return nil
}

func (a *RedisAdapter) SortedSetRange(ctx context.Context, key string, start, stop int64, descending bool) ([]string, error) {
	var (
		members []string
		err     error
	)
	if descending {
		members, err = a.client.ZRevRange(ctx, key, start, stop).Result()
	} else {
		members, err = a.client.ZRange(ctx, key, start, stop).Result()
	}
	if err != nil {
		return nil, wrap("zrange", err)
	}
	return members, nil
}

func (a *RedisAdapter) SortedSetCard(ctx context.Context, key string) (int64, error) {
	n, err := a.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, wrap("zcard", err)
	}
	return n, nil
}

func (a *RedisAdapter) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx).Err(); err != nil {
		return wrap("ping", err)
	}
	return nil
}
