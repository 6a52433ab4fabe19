package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = errors.New("not found")

// ErrDuplicate возвращается при нарушении уникального ключа (email, корзина пользователя)
var ErrDuplicate = errors.New("duplicate key")

// ErrConflict условное обновление не применилось: документ изменён параллельно
// или нарушено условие записи (например, повторный отзыв)
var ErrConflict = errors.New("conflict")

// Варианты сортировки каталога
const (
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortNewest    = "newest"
	SortRating    = "rating"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ProductFilter параметры фильтрации и постраничного вывода каталога
type ProductFilter struct {
	Category    domain.Category
	SubCategory domain.SubCategory
	Brand       string
	Color       string
	Size        domain.Size
	MinPrice    *float64
	MaxPrice    *float64
	Sort        string
	Page        int
	Limit       int
}

// Normalize подставляет значения страницы и лимита по умолчанию
func (f *ProductFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
}

func (f ProductFilter) Skip() int64 { return int64((f.Page - 1) * f.Limit) }

// ProductRepository интерфейс репозитория товаров
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	// Update перезаписывает редактируемые поля; отзывы и рейтинг не затрагиваются
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, int64, error)
	Count(ctx context.Context) (int64, error)
	// DecrementStock атомарно списывает qty с размера size, только если остаток >= qty.
	// false означает, что условие не выполнено (товара, размера нет или остатка мало).
	DecrementStock(ctx context.Context, id string, size domain.Size, qty int) (bool, error)
	IncrementStock(ctx context.Context, id string, size domain.Size, qty int) error
	// AddReview добавляет отзыв и пересчитывает рейтинг одной записью, не трогая остатки.
	// ErrConflict, если у пользователя уже есть отзыв на этот товар.
	AddReview(ctx context.Context, id string, r domain.Review) (*domain.Product, error)
}

// CartRepository интерфейс репозитория корзин (одна корзина на пользователя)
type CartRepository interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, c *domain.Cart) error
}

// ProductSales количество проданных единиц товара
type ProductSales struct {
	ProductID string `bson:"_id"`
	TotalSold int    `bson:"totalSold"`
}

// OrderRepository интерфейс репозитория заказов
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// Update сохраняет заказ, только если в хранилище та же версия, что была прочитана.
	// При успехе Version увеличивается; ErrConflict, если заказ успели изменить.
	Update(ctx context.Context, o *domain.Order) error
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	Count(ctx context.Context) (int64, error)
	// DeliveredRevenue сумма totalAmount по заказам в статусе delivered
	DeliveredRevenue(ctx context.Context) (float64, error)
	CreatedSince(ctx context.Context, since time.Time) ([]domain.Order, error)
	// TopSelling товары с наибольшим числом проданных единиц в доставленных заказах
	TopSelling(ctx context.Context, limit int) ([]ProductSales, error)
}

// UserRepository интерфейс репозитория пользователей
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// NewID генерирует идентификатор документа; одинаковый формат для Mongo и in-memory
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// helper: case-insensitive equality for free-text filters
func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
