package kvstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// RedisKV persists values in Redis. TTL of zero keeps keys forever,
// which is what the client-state keys want.
type RedisKV struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisKV builds a Redis-backed key-value store.
func NewRedisKV(addr, password string, ttl time.Duration) *RedisKV {
	return &RedisKV{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	val, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

func (s *RedisKV) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := s.client.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}
