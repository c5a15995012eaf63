package infra

import (
	"context"
	"errors"
	"time"

	"storefront-gateway/cache/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStore adapta um *redis.Client para o contrato domain.RemoteStore.
// Tradução de erro: redis.Nil vira domain.ErrNotFound; o resto sobe cru
// (e o serviço interpreta como remoto indisponível).
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	return v, err
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return s.rdb.Del(ctx, keys...).Result()
}

func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return s.rdb.Keys(ctx, pattern).Result()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Info(ctx context.Context, section string) (string, error) {
	return s.rdb.Info(ctx, section).Result()
}
