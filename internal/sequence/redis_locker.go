package sequence

import (
	"context"
	"fmt"
	"time"

	"magnova-scm-api-server/config"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisLocker holds a short-lived redis lock per sequence so several API processes
// do not race on the same counter.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRedisLocker pings redis once and fails if it is unreachable.
func NewRedisLocker(ctx context.Context, cfg config.RedisConfig, ttl time.Duration, logger *logrus.Logger) (*RedisLocker, *redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect redis at %s: %w", cfg.Addr, err)
	}
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl, logger: logger}, rdb, nil
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, "lock:"+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), int(l.ttl/(50*time.Millisecond))),
	})
	if err == redislock.ErrNotObtained {
		return nil, fmt.Errorf("lock %s is held by another process", key)
	} else if err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Release(context.Background()); err != nil && err != redislock.ErrLockNotHeld {
			config.LogError(l.logger, "sequence", "Lock", "release redis lock", key, err)
		}
	}, nil
}
