package cache

import (
	"context"
	"errors"

	"storefront/internal/domain"
)

// CartCache кэш корзин по идентификатору пользователя
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	// Set не перезаписывает кэш копией старше последней инвалидации
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	// Invalidate удаляет копию и запоминает версию, ниже которой Set больше не пишет
	Invalidate(ctx context.Context, userID string, version int64) error
}

var ErrCacheMiss = errors.New("cache miss")

// NopCache используется, когда Redis не настроен: всегда промах
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*domain.Cart, error) { return nil, ErrCacheMiss }
func (NopCache) Set(context.Context, string, *domain.Cart) error { return nil }
func (NopCache) Invalidate(context.Context, string, int64) error { return nil }
