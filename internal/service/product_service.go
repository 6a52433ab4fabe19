package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// ProductService инкапсулирует бизнес-логику вокруг товаров
type ProductService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// ProductPage страница каталога
type ProductPage struct {
	Products []domain.Product `json:"products"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
	Total    int64            `json:"total"`
}

func (s *ProductService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	cp := p
	cp.ID = ""
	cp.Reviews = []domain.Review{}
	cp.RecalculateRatings()
	if err := cp.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// Update заменяет редактируемые поля; отзывы и рейтинг не трогаются
func (s *ProductService) Update(ctx context.Context, id string, in domain.Product) (*domain.Product, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Images = in.Images
	p.Category = in.Category
	p.SubCategory = in.SubCategory
	p.Sizes = in.Sizes
	p.Color = in.Color
	p.Brand = in.Brand
	p.Material = in.Material
	p.Features = in.Features
	p.CareInstructions = in.CareInstructions
	p.Tags = in.Tags
	p.IsOnSale = in.IsOnSale
	p.SalePrice = in.SalePrice
	p.IsNewArrival = in.IsNewArrival
	p.IsFeatured = in.IsFeatured
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateStock заменяет список размеров с остатками
func (s *ProductService) UpdateStock(ctx context.Context, id string, sizes []domain.SizeStock) (*domain.Product, error) {
	if err := domain.ValidateSizes(sizes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Sizes = sizes
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

func (s *ProductService) List(ctx context.Context, f repository.ProductFilter) (*ProductPage, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, fmt.Errorf("%w: minPrice greater than maxPrice", ErrInvalidInput)
	}
	f.Normalize()
	products, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	pages := int((total + int64(f.Limit) - 1) / int64(f.Limit))
	return &ProductPage{Products: products, Page: f.Page, Pages: pages, Total: total}, nil
}

// AddReview один отзыв на пользователя; средний рейтинг пересчитывается
func (s *ProductService) AddReview(ctx context.Context, author *domain.User, productID string, rating int, comment string) (*domain.Product, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if strings.TrimSpace(productID) == "" {
		return nil, ErrInvalidInput
	}
	p, err := s.repo.AddReview(ctx, productID, domain.Review{
		UserID:    author.ID,
		Name:      strings.TrimSpace(author.FirstName + " " + author.LastName),
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: time.Now().UTC(),
	})
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrAlreadyReviewed
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
