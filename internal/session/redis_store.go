package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/levelup/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// RedisStore keeps each client's identity as a JSON blob. A zero ttl keeps it
// until logout.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (r RedisStore) Load(ctx context.Context, clientID string) (*domain.Identity, error) {
	data, err := r.client.Get(ctx, storageKey(clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var identity domain.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &identity, nil
}

func (r RedisStore) Save(ctx context.Context, clientID string, identity *domain.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	if err := r.client.Set(ctx, storageKey(clientID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisStore) Delete(ctx context.Context, clientID string) error {
	if err := r.client.Del(ctx, storageKey(clientID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func storageKey(clientID string) string {
	return fmt.Sprintf("%s:%s", StorageKey, clientID)
}
