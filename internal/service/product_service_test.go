package service

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

func TestProduct_Create_Valid(t *testing.T) {
	f := setup(t)
	p := f.product(t, "Tee", 100, domain.SizeStock{Size: domain.SizeM, Quantity: 10})
	if p.ID == "" {
		t.Fatalf("expected id assigned")
	}
	if p.Ratings.Count != 0 || len(p.Reviews) != 0 {
		t.Fatalf("new product must start without reviews")
	}
}

func TestProduct_Create_Invalid(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	base := domain.Product{
		Name: "N", Description: "D", Price: 1, Category: domain.CategoryMen, SubCategory: "shirts",
		Brand: "B", Material: "M", Color: domain.Color{Name: "Red", Code: "#f00"},
	}

	cases := map[string]func(p *domain.Product){
		"empty name":      func(p *domain.Product) { p.Name = "" },
		"negative price":  func(p *domain.Product) { p.Price = -1 },
		"bad category":    func(p *domain.Product) { p.Category = "pets" },
		"bad subcategory": func(p *domain.Product) { p.SubCategory = "hats" },
		"negative stock":  func(p *domain.Product) { p.Sizes = []domain.SizeStock{{Size: domain.SizeM, Quantity: -1}} },
		"unknown size":    func(p *domain.Product) { p.Sizes = []domain.SizeStock{{Size: "XXS", Quantity: 1}} },
		"duplicate size": func(p *domain.Product) {
			p.Sizes = []domain.SizeStock{{Size: domain.SizeM, Quantity: 1}, {Size: domain.SizeM, Quantity: 2}}
		},
	}
	for name, mutate := range cases {
		p := base
		mutate(&p)
		if _, err := f.products.Create(ctx, p); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestProduct_Update_Get_Delete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p := f.product(t, "A", 10, domain.SizeStock{Size: domain.SizeS, Quantity: 5})

	// get
	got, err := f.products.GetByID(ctx, p.ID)
	if err != nil || got.ID != p.ID {
		t.Fatalf("get failed: %v", err)
	}

	// update
	in := *p
	in.Name = "A+"
	in.Price = 12
	in.IsOnSale = true
	in.SalePrice = 9
	up, err := f.products.Update(ctx, p.ID, in)
	if err != nil {
		t.Fatalf("update err: %v", err)
	}
	if up.Name != "A+" || up.Price != 12 || up.EffectivePrice() != 9 {
		t.Fatalf("not updated: %+v", up)
	}

	// stock
	up, err = f.products.UpdateStock(ctx, p.ID, []domain.SizeStock{{Size: domain.SizeS, Quantity: 7}, {Size: domain.SizeL, Quantity: 1}})
	if err != nil {
		t.Fatalf("update stock: %v", err)
	}
	if q, _ := up.StockFor(domain.SizeS); q != 7 {
		t.Fatalf("stock not replaced: %d", q)
	}

	// delete
	if err := f.products.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete err: %v", err)
	}
	if _, err := f.products.GetByID(ctx, p.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestProduct_List_Pagination(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	for _, price := range []float64{50, 100, 150} {
		f.product(t, "P", price)
	}

	page, err := f.products.List(ctx, repository.ProductFilter{Sort: repository.SortPriceAsc, Limit: 2})
	if err != nil {
		t.Fatalf("list err: %v", err)
	}
	if page.Total != 3 || page.Pages != 2 || page.Page != 1 || len(page.Products) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}

	// min price
	minPrice := 100.0
	page, _ = f.products.List(ctx, repository.ProductFilter{MinPrice: &minPrice})
	for _, p := range page.Products {
		if p.Price < minPrice {
			t.Fatalf("price filter failed")
		}
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 products >= 100, got %d", page.Total)
	}

	maxPrice := 10.0
	if _, err := f.products.List(ctx, repository.ProductFilter{MinPrice: &minPrice, MaxPrice: &maxPrice}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid range error, got %v", err)
	}
}

func TestProduct_Reviews(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p := f.product(t, "A", 10)
	ann := f.user(t, "ann@example.com")
	bob := f.user(t, "bob@example.com")

	if _, err := f.products.AddReview(ctx, ann, p.ID, 6, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected rating validation, got %v", err)
	}
	if _, err := f.products.AddReview(ctx, ann, p.ID, 5, "great"); err != nil {
		t.Fatalf("review: %v", err)
	}
	got, err := f.products.AddReview(ctx, bob, p.ID, 2, "meh")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if got.Ratings.Count != 2 || got.Ratings.Average != 3.5 {
		t.Fatalf("ratings wrong: %+v", got.Ratings)
	}
	if _, err := f.products.AddReview(ctx, ann, p.ID, 4, "again"); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("expected duplicate review error, got %v", err)
	}
	if !errors.Is(ErrAlreadyReviewed, ErrInvalidState) {
		t.Fatalf("duplicate review must be an invalid state")
	}
}

func TestProduct_Review_KeepsConcurrentStockDecrement(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p := f.product(t, "A", 10, domain.SizeStock{Size: domain.SizeM, Quantity: 5})
	ann := f.user(t, "ann@example.com")

	repo := &interleavedProducts{MemoryStore: f.store}
	repo.onAccess = func() {
		if ok, err := f.store.DecrementStock(ctx, p.ID, domain.SizeM, 3); err != nil || !ok {
			t.Errorf("decrement: ok=%v err=%v", ok, err)
		}
	}
	svc := NewProductService(repo)

	got, err := svc.AddReview(ctx, ann, p.ID, 4, "fits well")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if got.Ratings.Count != 1 || got.Ratings.Average != 4 {
		t.Fatalf("ratings wrong: %+v", got.Ratings)
	}
	if stock := f.stock(t, p.ID, domain.SizeM); stock != 2 {
		t.Fatalf("review write must not touch stock: got %d want 2", stock)
	}
}

func TestProduct_Update_KeepsReviews(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p := f.product(t, "A", 10, domain.SizeStock{Size: domain.SizeM, Quantity: 5})
	ann := f.user(t, "ann@example.com")

	if _, err := f.products.AddReview(ctx, ann, p.ID, 5, ""); err != nil {
		t.Fatalf("review: %v", err)
	}
	// p прочитан до отзыва; его запись не должна стереть отзыв
	p.Price = 12
	if err := f.store.Update(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := f.products.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Price != 12 || len(got.Reviews) != 1 || got.Ratings.Count != 1 {
		t.Fatalf("update lost reviews or price: price=%v reviews=%d", got.Price, len(got.Reviews))
	}
}
