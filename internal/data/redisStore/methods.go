package redisStore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func (s *Store) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// ListPush appends values and refreshes the key's expiry in one round trip.
func (s *Store) ListPush(ctx context.Context, key string, ttl time.Duration, values ...interface{}) error {
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.client.Exists(ctx, key).Result()
	return count > 0, err
}

// ListGetLast returns the last n elements in list order; n <= 0 returns the whole list.
func (s *Store) ListGetLast(ctx context.Context, key string, n int) ([]string, error) {
	start := int64(0)
	if n > 0 {
		start = -int64(n)
	}
	return s.client.LRange(ctx, key, start, -1).Result()
}
