package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Size размер одежды или обуви
type Size string

const (
	SizeXS      Size = "XS"
	SizeS       Size = "S"
	SizeM       Size = "M"
	SizeL       Size = "L"
	SizeXL      Size = "XL"
	SizeXXL     Size = "XXL"
	SizeXXXL    Size = "XXXL"
	Size6       Size = "6"
	Size7       Size = "7"
	Size8       Size = "8"
	Size9       Size = "9"
	Size10      Size = "10"
	Size11      Size = "11"
	Size12      Size = "12"
	SizeOneSize Size = "ONE SIZE"
)

var sizes = map[Size]struct{}{
	SizeXS: {}, SizeS: {}, SizeM: {}, SizeL: {}, SizeXL: {}, SizeXXL: {}, SizeXXXL: {},
	Size6: {}, Size7: {}, Size8: {}, Size9: {}, Size10: {}, Size11: {}, Size12: {},
	SizeOneSize: {},
}

func (s Size) Valid() bool {
	_, ok := sizes[s]
	return ok
}

// Category для кого товар
type Category string

const (
	CategoryMen    Category = "men"
	CategoryWomen  Category = "women"
	CategoryKids   Category = "kids"
	CategoryUnisex Category = "unisex"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMen, CategoryWomen, CategoryKids, CategoryUnisex:
		return true
	}
	return false
}

// SubCategory вид изделия
type SubCategory string

var subCategories = map[SubCategory]struct{}{
	"tshirts": {}, "shirts": {}, "pants": {}, "dresses": {}, "skirts": {},
	"jackets": {}, "sweaters": {}, "activewear": {}, "accessories": {}, "shoes": {},
}

func (s SubCategory) Valid() bool {
	_, ok := subCategories[s]
	return ok
}

// SizeStock остаток товара в одном размере
type SizeStock struct {
	Size     Size `json:"size" bson:"size"`
	Quantity int  `json:"quantity" bson:"quantity"`
}

type Color struct {
	Name string `json:"name" bson:"name"`
	Code string `json:"code" bson:"code"`
}

type Review struct {
	UserID    string    `json:"user" bson:"user"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Ratings struct {
	Average float64 `json:"average" bson:"average"`
	Count   int     `json:"count" bson:"count"`
}

// Product товар каталога с остатками по размерам
type Product struct {
	ID               string      `json:"id" bson:"_id,omitempty"`
	Name             string      `json:"name" bson:"name"`
	Description      string      `json:"description" bson:"description"`
	Price            float64     `json:"price" bson:"price"`
	Images           []string    `json:"images" bson:"images"`
	Category         Category    `json:"category" bson:"category"`
	SubCategory      SubCategory `json:"subCategory" bson:"subCategory"`
	Sizes            []SizeStock `json:"sizes" bson:"sizes"`
	Color            Color       `json:"color" bson:"color"`
	Brand            string      `json:"brand" bson:"brand"`
	Material         string      `json:"material" bson:"material"`
	Features         []string    `json:"features,omitempty" bson:"features,omitempty"`
	CareInstructions []string    `json:"careInstructions,omitempty" bson:"careInstructions,omitempty"`
	Tags             []string    `json:"tags,omitempty" bson:"tags,omitempty"`
	Ratings          Ratings     `json:"ratings" bson:"ratings"`
	Reviews          []Review    `json:"reviews" bson:"reviews"`
	IsOnSale         bool        `json:"isOnSale" bson:"isOnSale"`
	SalePrice        float64     `json:"salePrice,omitempty" bson:"salePrice,omitempty"`
	IsNewArrival     bool        `json:"isNewArrival" bson:"isNewArrival"`
	IsFeatured       bool        `json:"isFeatured" bson:"isFeatured"`
	CreatedAt        time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// EffectivePrice цена за единицу с учётом распродажи
func (p *Product) EffectivePrice() float64 {
	if p.IsOnSale && p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.Price
}

// StockFor остаток в размере и признак, что размер вообще есть у товара
func (p *Product) StockFor(size Size) (int, bool) {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Quantity, true
		}
	}
	return 0, false
}

func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p *Product) HasReviewFrom(userID string) bool {
	for _, r := range p.Reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// AddReview добавляет отзыв; средний рейтинг пересчитывается
func (p *Product) AddReview(r Review) {
	p.Reviews = append(p.Reviews, r)
	p.RecalculateRatings()
}

func (p *Product) RecalculateRatings() {
	p.Ratings.Count = len(p.Reviews)
	if p.Ratings.Count == 0 {
		p.Ratings.Average = 0
		return
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.Ratings.Average = float64(sum) / float64(p.Ratings.Count)
}

// Validate проверка перед сохранением
func (p *Product) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(p.Description) == "" {
		errs = append(errs, errors.New("description is required"))
	}
	if p.Price < 0 {
		errs = append(errs, errors.New("price must not be negative"))
	}
	if p.SalePrice < 0 {
		errs = append(errs, errors.New("salePrice must not be negative"))
	}
	if !p.Category.Valid() {
		errs = append(errs, fmt.Errorf("unknown category %q", p.Category))
	}
	if !p.SubCategory.Valid() {
		errs = append(errs, fmt.Errorf("unknown subCategory %q", p.SubCategory))
	}
	if strings.TrimSpace(p.Brand) == "" {
		errs = append(errs, errors.New("brand is required"))
	}
	if strings.TrimSpace(p.Material) == "" {
		errs = append(errs, errors.New("material is required"))
	}
	if p.Color.Name == "" || p.Color.Code == "" {
		errs = append(errs, errors.New("color name and code are required"))
	}
	if err := ValidateSizes(p.Sizes); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (p *Product) Clone() *Product {
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	cp.Sizes = append([]SizeStock(nil), p.Sizes...)
	cp.Features = append([]string(nil), p.Features...)
	cp.CareInstructions = append([]string(nil), p.CareInstructions...)
	cp.Tags = append([]string(nil), p.Tags...)
	cp.Reviews = append([]Review(nil), p.Reviews...)
	return &cp
}

// ValidateSizes неизвестный или повторный размер, отрицательный остаток
func ValidateSizes(list []SizeStock) error {
	seen := make(map[Size]struct{}, len(list))
	for _, s := range list {
		if !s.Size.Valid() {
			return fmt.Errorf("unknown size %q", s.Size)
		}
		if _, dup := seen[s.Size]; dup {
			return fmt.Errorf("size %q listed twice", s.Size)
		}
		seen[s.Size] = struct{}{}
		if s.Quantity < 0 {
			return fmt.Errorf("stock for size %q must not be negative", s.Size)
		}
	}
	return nil
}
