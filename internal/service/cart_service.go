package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

// CartService корзина пользователя: источник истины в хранилище, в Redis cache-aside копия
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	log      zerolog.Logger
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, c cache.CartCache, log zerolog.Logger) *CartService {
	if c == nil {
		c = cache.NopCache{}
	}
	return &CartService{carts: carts, products: products, cache: c, log: log}
}

// Get возвращает корзину пользователя, создавая пустую при первом обращении
func (s *CartService) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("cart cache get failed")
		}

		cart, err = s.carts.GetByUser(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			cart = domain.NewCart(userID)
			err = s.carts.Save(ctx, cart)
		}
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, userID, cart); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("cart cache set failed")
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	// callers of one flight share the value
	return v.(*domain.Cart).Clone(), nil
}

// Current корзина из хранилища в обход кэша; ErrNotFound, если её нет
func (s *CartService) Current(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.carts.GetByUser(ctx, userID)
}

// AddItem добавляет позицию или увеличивает количество в строке с тем же товаром и размером
func (s *CartService) AddItem(ctx context.Context, userID, productID string, size domain.Size, quantity int) (*domain.Cart, error) {
	if productID == "" || !size.Valid() || quantity < 1 {
		return nil, fmt.Errorf("%w: product, valid size and quantity >= 1 are required", ErrInvalidInput)
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	stock, listed := p.StockFor(size)
	if !listed {
		return nil, fmt.Errorf("%w: %s has no size %s", ErrSizeUnavailable, p.Name, size)
	}

	cart, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		cart, err = domain.NewCart(userID), nil
	}
	if err != nil {
		return nil, err
	}

	if i := cart.FindLine(productID, size); i >= 0 {
		merged := cart.Items[i].Quantity + quantity
		if merged > stock {
			return nil, notEnoughStock(p.Name, size, merged, stock)
		}
		cart.Items[i].Quantity = merged
	} else {
		if quantity > stock {
			return nil, notEnoughStock(p.Name, size, quantity, stock)
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ID:        uuid.NewString(),
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.FirstImage(),
			Size:      size,
			Quantity:  quantity,
			Price:     p.EffectivePrice(),
		})
	}
	return s.persist(ctx, cart)
}

// UpdateItem задаёт новое количество строки, сверяясь с текущим остатком
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := cart.ItemIndex(itemID)
	if i < 0 {
		return nil, fmt.Errorf("cart item %s: %w", itemID, repository.ErrNotFound)
	}
	line := cart.Items[i]
	p, err := s.products.GetByID(ctx, line.ProductID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", line.ProductID, err)
	}
	stock, listed := p.StockFor(line.Size)
	if !listed {
		return nil, fmt.Errorf("%w: %s has no size %s", ErrSizeUnavailable, p.Name, line.Size)
	}
	if quantity > stock {
		return nil, notEnoughStock(p.Name, line.Size, quantity, stock)
	}
	cart.Items[i].Quantity = quantity
	return s.persist(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cart.RemoveItem(itemID) {
		return nil, fmt.Errorf("cart item %s: %w", itemID, repository.ErrNotFound)
	}
	return s.persist(ctx, cart)
}

func (s *CartService) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Clear()
	return s.persist(ctx, cart)
}

func (s *CartService) loadCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("cart: %w", err)
	}
	return cart, nil
}

// persist обновляет цены строк по каталогу, пересчитывает итоги, сохраняет и сбрасывает кэш
func (s *CartService) persist(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if len(cart.Items) > 0 {
		ids := make([]string, 0, len(cart.Items))
		for _, it := range cart.Items {
			ids = append(ids, it.ProductID)
		}
		products, err := s.products.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]*domain.Product, len(products))
		for i := range products {
			byID[products[i].ID] = &products[i]
		}
		for i, it := range cart.Items {
			if p, ok := byID[it.ProductID]; ok {
				cart.Items[i].Price = p.EffectivePrice()
				cart.Items[i].Name = p.Name
				cart.Items[i].Image = p.FirstImage()
			}
		}
	}
	cart.Recalculate()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	s.invalidate(ctx, cart)
	return cart, nil
}

func (s *CartService) invalidate(ctx context.Context, cart *domain.Cart) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx, cart.UserID, cart.Version); err != nil {
		s.log.Warn().Err(err).Str("user_id", cart.UserID).Msg("cart cache invalidate failed")
	}
}

func notEnoughStock(name string, size domain.Size, requested, available int) error {
	return fmt.Errorf("%w for %s in size %s: requested %d, available %d", ErrNotEnoughStock, name, size, requested, available)
}
