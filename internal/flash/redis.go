package flash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "flash:"

// RedisStore shares pending flashes between server instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Put implements Store.
func (r *RedisStore) Put(ctx context.Context, key string, f Flash) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode flash: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("store flash: %w", err)
	}
	return nil
}

// Pop implements Store with GETDEL so two concurrent renders cannot both see
// the same flash.
func (r *RedisStore) Pop(ctx context.Context, key string) (Flash, error) {
	raw, err := r.client.GetDel(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Flash{}, nil
	}
	if err != nil {
		return Flash{}, fmt.Errorf("pop flash: %w", err)
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil {
		return Flash{}, fmt.Errorf("decode flash: %w", err)
	}
	return f, nil
}
