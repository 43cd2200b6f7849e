package local

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	attemptsPrefix = "signin:attempts:"
	revokedPrefix  = "revoked:"
)

// RedisThrottle counts attempts with INCR, starting the window on the first hit.
type RedisThrottle struct {
	rdb    redis.Cmdable
	window time.Duration
}

func NewRedisThrottle(rdb redis.Cmdable, window time.Duration) *RedisThrottle {
	return &RedisThrottle{rdb: rdb, window: window}
}

func (t *RedisThrottle) Hit(ctx context.Context, key string) (int64, error) {
	k := attemptsPrefix + key
	n, err := t.rdb.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", k, err)
	}
	if n == 1 {
		if err := t.rdb.Expire(ctx, k, t.window).Err(); err != nil {
			return 0, fmt.Errorf("expire %s: %w", k, err)
		}
	}
	return n, nil
}

func (t *RedisThrottle) Reset(ctx context.Context, key string) error {
	return t.rdb.Del(ctx, attemptsPrefix+key).Err()
}

type RedisRevoker struct {
	rdb redis.Cmdable
}

func NewRedisRevoker(rdb redis.Cmdable) *RedisRevoker { return &RedisRevoker{rdb: rdb} }

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return r.rdb.Set(ctx, revokedPrefix+jti, 1, ttl).Err()
}

func (r *RedisRevoker) Revoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
