package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/domain"
)

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

// RedisStorage keeps one serialized cart per shopper session under a fixed
// key, with no TTL: the cart survives until checkout clears it. Every write
// is also published on the cart's update channel so other surfaces holding
// the same session can re-read.
type RedisStorage struct {
	client *redis.Client
}

func (r *RedisStorage) Load(ctx context.Context, key string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, storageKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err2 := json.Unmarshal(data, &cart); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
	}

	return &cart, nil
}

func (r *RedisStorage) Save(ctx context.Context, key string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := r.client.Set(ctx, storageKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	r.publishUpdate(ctx, key)
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, storageKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	r.publishUpdate(ctx, key)
	return nil
}

func (r *RedisStorage) publishUpdate(ctx context.Context, key string) {
	if err := r.client.Publish(ctx, UpdateChannel(key), "").Err(); err != nil {
		// The write itself succeeded; a lost notification only delays badge
		// refresh in other surfaces.
		log.Printf("cart update publish failed for %s: %v", key, err)
	}
}

func storageKey(key string) string {
	return fmt.Sprintf("cart:%s", key)
}

// UpdateChannel is the pub/sub channel carrying change notifications for one
// session's cart.
func UpdateChannel(key string) string {
	return fmt.Sprintf("cart:updated:%s", key)
}
