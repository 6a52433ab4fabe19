package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

func TestCart_Get_CreatesEmpty(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	if _, err := f.carts.Current(ctx, "u1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected no cart yet, got %v", err)
	}
	cart, err := f.carts.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cart.ID == "" || cart.UserID != "u1" || !cart.IsEmpty() {
		t.Fatalf("unexpected cart: %+v", cart)
	}
	again, _ := f.carts.Get(ctx, "u1")
	if again.ID != cart.ID {
		t.Fatalf("one cart per user expected")
	}
}

func TestCart_AddItem_MergesLines(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p := f.product(t, "Tee", 25, domain.SizeStock{Size: domain.SizeM, Quantity: 5}, domain.SizeStock{Size: domain.SizeL, Quantity: 5})

	if _, err := f.carts.AddItem(ctx, "u1", p.ID, domain.SizeM, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	cart, err := f.carts.AddItem(ctx, "u1", p.ID, domain.SizeM, 2)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 3 {
		t.Fatalf("same product and size must merge: %+v", cart.Items)
	}
	cart, err = f.carts.AddItem(ctx, "u1", p.ID, domain.SizeL, 1)
	if err != nil {
		t.Fatalf("add L: %v", err)
	}
	if len(cart.Items) != 2 {
		t.Fatalf("other size must be a separate line")
	}
	if cart.TotalItems != 4 || cart.TotalAmount != 100 {
		t.Fatalf("totals wrong: items=%d amount=%v", cart.TotalItems, cart.TotalAmount)
	}
	if cart.Items[0].Name != "Tee" || cart.Items[0].Image != "Tee.jpg" || cart.Items[0].Price != 25 {
		t.Fatalf("line snapshot wrong: %+v", cart.Items[0])
	}
}

func TestCart_AddItem_StockChecks(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p := f.product(t, "Tee", 25, domain.SizeStock{Size: domain.SizeM, Quantity: 2})

	_, err := f.carts.AddItem(ctx, "u1", p.ID, domain.SizeM, 3)
	if !errors.Is(err, ErrNotEnoughStock) || !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected not enough stock, got %v", err)
	}
	if _, err := f.carts.Current(ctx, "u1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("failed add must not create a cart, got %v", err)
	}

	if _, err := f.carts.AddItem(ctx, "u1", p.ID, domain.SizeM, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	// слияние тоже проверяется по остатку
	if _, err := f.carts.AddItem(ctx, "u1", p.ID, domain.SizeM, 1); !errors.Is(err, ErrNotEnoughStock) {
		t.Fatalf("merged quantity must be checked, got %v", err)
	}
	cart, _ := f.carts.Get(ctx, "u1")
	if cart.Items[0].Quantity != 2 {
		t.Fatalf("cart changed after rejected add: %+v", cart.Items)
	}

	if _, err := f.carts.AddItem(ctx, "u1", p.ID, domain.SizeXL, 1); !errors.Is(err, ErrSizeUnavailable) {
		t.Fatalf("expected unlisted size error, got %v", err)
	}
	if _, err := f.carts.AddItem(ctx, "u1", "missing", domain.SizeM, 1); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected missing product, got %v", err)
	}
	if _, err := f.carts.AddItem(ctx, "u1", p.ID, domain.SizeM, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
}

func TestCart_UpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.product(t, "A", 10, domain.SizeStock{Size: domain.SizeS, Quantity: 4})
	b := f.product(t, "B", 5, domain.SizeStock{Size: domain.SizeS, Quantity: 4})

	if _, err := f.carts.UpdateItem(ctx, "u1", "x", 1); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected missing cart, got %v", err)
	}

	f.carts.AddItem(ctx, "u1", a.ID, domain.SizeS, 1)
	cart, err := f.carts.AddItem(ctx, "u1", b.ID, domain.SizeS, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	lineA := cart.Items[0].ID

	cart, err = f.carts.UpdateItem(ctx, "u1", lineA, 4)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if cart.TotalAmount != 45 || cart.TotalItems != 5 {
		t.Fatalf("totals after update: %v / %d", cart.TotalAmount, cart.TotalItems)
	}
	if _, err := f.carts.UpdateItem(ctx, "u1", lineA, 5); !errors.Is(err, ErrNotEnoughStock) {
		t.Fatalf("expected stock check on update, got %v", err)
	}
	if _, err := f.carts.UpdateItem(ctx, "u1", "nope", 1); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected missing line, got %v", err)
	}

	cart, err = f.carts.RemoveItem(ctx, "u1", lineA)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(cart.Items) != 1 || cart.TotalAmount != 5 {
		t.Fatalf("after remove: %+v", cart)
	}
	if _, err := f.carts.RemoveItem(ctx, "u1", lineA); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected missing line, got %v", err)
	}

	cart, err = f.carts.Clear(ctx, "u1")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !cart.IsEmpty() || cart.TotalAmount != 0 || cart.TotalItems != 0 {
		t.Fatalf("clear left data: %+v", cart)
	}
}

func TestCart_PricesFollowCatalog(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p := f.product(t, "A", 40, domain.SizeStock{Size: domain.SizeS, Quantity: 10})
	if _, err := f.carts.AddItem(ctx, "u1", p.ID, domain.SizeS, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	in := *p
	in.IsOnSale = true
	in.SalePrice = 30
	if _, err := f.products.Update(ctx, p.ID, in); err != nil {
		t.Fatalf("update product: %v", err)
	}

	cart, err := f.carts.AddItem(ctx, "u1", p.ID, domain.SizeS, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if cart.Items[0].Price != 30 || cart.TotalAmount != 90 {
		t.Fatalf("sale price not applied: %+v", cart)
	}
}

// interleavedCarts выполняет afterRead один раз сразу после чтения корзины
type interleavedCarts struct {
	*repository.MemoryCarts
	afterRead func()
}

func (r *interleavedCarts) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := r.MemoryCarts.GetByUser(ctx, userID)
	if hook := r.afterRead; hook != nil {
		r.afterRead = nil
		hook()
	}
	return c, err
}

func TestCart_StaleReadIsNotCached(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "ann@example.com")
	p := f.product(t, "A", 10, domain.SizeStock{Size: domain.SizeM, Quantity: 5})

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	rc := cache.NewRedisCache(client, time.Minute)

	carts := &interleavedCarts{MemoryCarts: repository.NewMemoryCarts(f.store)}
	svc := NewCartService(carts, f.store, rc, zerolog.Nop())

	empty, err := svc.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := rc.Invalidate(ctx, u.ID, empty.Version); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	// запись успевает между чтением из хранилища и заполнением кэша
	carts.afterRead = func() {
		if _, err := svc.AddItem(ctx, u.ID, p.ID, domain.SizeM, 2); err != nil {
			t.Errorf("add: %v", err)
		}
	}
	if _, err := svc.Get(ctx, u.ID); err != nil {
		t.Fatalf("racing get: %v", err)
	}

	got, err := svc.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 1 || got.TotalItems != 2 {
		t.Fatalf("stale cart served from cache: %+v", got)
	}
}
