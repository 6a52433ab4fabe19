package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

const (
	recentOrdersWindow = 7 * 24 * time.Hour
	topProductsLimit   = 5
)

// AdminService отчёты панели администратора и управление пользователями
type AdminService struct {
	users    repository.UserRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	now      func() time.Time
}

func NewAdminService(users repository.UserRepository, products repository.ProductRepository, orders repository.OrderRepository) *AdminService {
	return &AdminService{
		users:    users,
		products: products,
		orders:   orders,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type RecentOrder struct {
	ID          string             `json:"id"`
	TotalAmount float64            `json:"totalAmount"`
	Status      domain.OrderStatus `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
}

type TopProduct struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Images    []string `json:"images"`
	TotalSold int      `json:"totalSold"`
}

type DashboardStats struct {
	TotalUsers    int64         `json:"totalUsers"`
	TotalProducts int64         `json:"totalProducts"`
	TotalOrders   int64         `json:"totalOrders"`
	TotalRevenue  float64       `json:"totalRevenue"`
	RecentOrders  []RecentOrder `json:"recentOrders"`
	TopProducts   []TopProduct  `json:"topProducts"`
}

// Stats собирает показатели параллельно; выручка считается только по доставленным заказам
func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	var st DashboardStats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		st.TotalUsers, err = s.users.CountByRole(ctx, domain.RoleUser)
		return err
	})
	g.Go(func() (err error) {
		st.TotalProducts, err = s.products.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		st.TotalOrders, err = s.orders.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		st.TotalRevenue, err = s.orders.DeliveredRevenue(ctx)
		return err
	})
	g.Go(func() error {
		recent, err := s.orders.CreatedSince(ctx, s.now().Add(-recentOrdersWindow))
		if err != nil {
			return err
		}
		st.RecentOrders = make([]RecentOrder, 0, len(recent))
		for _, o := range recent {
			st.RecentOrders = append(st.RecentOrders, RecentOrder{ID: o.ID, TotalAmount: o.TotalAmount, Status: o.Status, CreatedAt: o.CreatedAt})
		}
		return nil
	})
	g.Go(func() error {
		top, err := s.topProducts(ctx)
		st.TopProducts = top
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &st, nil
}

func (s *AdminService) topProducts(ctx context.Context) ([]TopProduct, error) {
	sales, err := s.orders.TopSelling(ctx, topProductsLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(sales))
	for _, ps := range sales {
		ids = append(ids, ps.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]TopProduct, 0, len(sales))
	for _, ps := range sales {
		p, ok := byID[ps.ProductID]
		if !ok {
			continue
		}
		out = append(out, TopProduct{ID: p.ID, Name: p.Name, Images: p.Images, TotalSold: ps.TotalSold})
	}
	return out, nil
}

func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *AdminService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	return u, nil
}

// UserUpdate nil-поля не меняются
type UserUpdate struct {
	Role      *domain.Role
	IsBlocked *bool
}

func (s *AdminService) UpdateUser(ctx context.Context, id string, in UserUpdate) (*domain.User, error) {
	if in.Role != nil && !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *in.Role)
	}
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.IsBlocked != nil {
		u.IsBlocked = *in.IsBlocked
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("user: %w", err)
	}
	return nil
}
