package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scripttb/720CRM-sub000/internal/application/billing"
	"github.com/scripttb/720CRM-sub000/pkg/config"
)

var _ billing.IdempotencyStore = (*RedisStore)(nil)

// RedisStore reserva claves de un solo uso con SET NX + TTL; compartido entre instancias.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore conecta y verifica Redis.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return NewRedisStoreWithClient(client, ""), nil
}

// NewRedisStoreWithClient usa un cliente existente (tests o cliente compartido).
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "billing:idem:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

// Acquire devuelve true si la clave no existía y quedó reservada.
func (s *RedisStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: reservar %s: %w", key, err)
	}
	return ok, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis: liberar %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
