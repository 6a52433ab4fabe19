package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/domain"
)

const maxJitterMinutes = 5

// KEYS[1] корзина, KEYS[2] нижняя граница версии; ARGV: payload, version, ttl(ms)
var setScript = redis.NewScript(`
local floor = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[2]) < floor then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// KEYS[1] корзина, KEYS[2] нижняя граница версии; ARGV: version, ttl(ms)
var invalidateScript = redis.NewScript(`
redis.call('DEL', KEYS[1])
local floor = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[1]) > floor then
	redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
else
	redis.call('PEXPIRE', KEYS[2], ARGV[2])
end
return 1
`)

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = 15 * time.Minute
	}
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

var _ CartCache = (*RedisCache)(nil)

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

// Set кладёт корзину с TTL baseTTL плюс случайный сдвиг до 5 минут, чтобы ключи не истекали разом.
// Копия с версией ниже последней инвалидации молча отбрасывается.
func (r *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	ttl := r.baseTTL + time.Duration(rand.Intn(maxJitterMinutes))*time.Minute
	keys := []string{cacheKey(userID), floorKey(userID)}
	if err := setScript.Run(ctx, r.client, keys, payload, cart.Version, ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Invalidate(ctx context.Context, userID string, version int64) error {
	ttl := r.baseTTL + maxJitterMinutes*time.Minute
	keys := []string{cacheKey(userID), floorKey(userID)}
	if err := invalidateScript.Run(ctx, r.client, keys, version, ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis invalidate failed: %w", err)
	}
	return nil
}

// хеш-тег держит оба ключа пользователя в одном слоте кластера
func cacheKey(userID string) string {
	return fmt.Sprintf("cart:{%s}", userID)
}

func floorKey(userID string) string {
	return fmt.Sprintf("cart:{%s}:floor", userID)
}
