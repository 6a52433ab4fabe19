package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// MemoryStore объединённое in-memory хранилище: товары, корзины, заказы, пользователи.
// Наружу всегда отдаются копии, чтобы вызывающий код не мог изменить состояние в обход репозитория.
type MemoryStore struct {
	mu           sync.RWMutex
	productsByID map[string]domain.Product
	cartsByUser  map[string]domain.Cart
	ordersByID   map[string]domain.Order
	usersByID    map[string]domain.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		productsByID: make(map[string]domain.Product),
		cartsByUser:  make(map[string]domain.Cart),
		ordersByID:   make(map[string]domain.Order),
		usersByID:    make(map[string]domain.User),
	}
}

// Ensure interfaces
var (
	_ ProductRepository = (*MemoryStore)(nil)
	_ CartRepository    = (*MemoryCarts)(nil)
	_ OrderRepository   = (*MemoryOrders)(nil)
	_ UserRepository    = (*MemoryUsers)(nil)
)

// ProductRepository implementation
func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = NewID()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	m.productsByID[p.ID] = *p.Clone()
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.productsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *MemoryStore) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.productsByID[id]; ok {
			out = append(out, *p.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) Update(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.productsByID[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.Reviews = slices.Clone(old.Reviews)
	p.Ratings = old.Ratings
	p.UpdatedAt = time.Now().UTC()
	m.productsByID[p.ID] = *p.Clone()
	return nil
}

func (m *MemoryStore) AddReview(ctx context.Context, id string, r domain.Review) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.productsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := stored.Clone()
	if p.HasReviewFrom(r.UserID) {
		return nil, ErrConflict
	}
	p.AddReview(r)
	p.UpdatedAt = time.Now().UTC()
	m.productsByID[id] = *p.Clone()
	return p, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.productsByID[id]; !ok {
		return ErrNotFound
	}
	delete(m.productsByID, id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f ProductFilter) ([]domain.Product, int64, error) {
	f.Normalize()
	m.mu.RLock()
	out := make([]domain.Product, 0)
	for _, p := range m.productsByID {
		if matchesFilter(&p, f) {
			out = append(out, *p.Clone())
		}
	}
	m.mu.RUnlock()

	sortProducts(out, f.Sort)
	total := int64(len(out))
	start := min(int(f.Skip()), len(out))
	end := min(start+f.Limit, len(out))
	return out[start:end], total, nil
}

func (m *MemoryStore) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.productsByID)), nil
}

func (m *MemoryStore) DecrementStock(ctx context.Context, id string, size domain.Size, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.productsByID[id]
	if !ok {
		return false, nil
	}
	for i := range p.Sizes {
		if p.Sizes[i].Size != size {
			continue
		}
		if p.Sizes[i].Quantity < qty {
			return false, nil
		}
		sizes := slices.Clone(p.Sizes)
		sizes[i].Quantity -= qty
		p.Sizes = sizes
		p.UpdatedAt = time.Now().UTC()
		m.productsByID[id] = p
		return true, nil
	}
	return false, nil
}

func (m *MemoryStore) IncrementStock(ctx context.Context, id string, size domain.Size, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.productsByID[id]
	if !ok {
		return ErrNotFound
	}
	for i := range p.Sizes {
		if p.Sizes[i].Size == size {
			sizes := slices.Clone(p.Sizes)
			sizes[i].Quantity += qty
			p.Sizes = sizes
			p.UpdatedAt = time.Now().UTC()
			m.productsByID[id] = p
			return nil
		}
	}
	return ErrNotFound
}

func matchesFilter(p *domain.Product, f ProductFilter) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.SubCategory != "" && p.SubCategory != f.SubCategory {
		return false
	}
	if f.Brand != "" && !equalFoldTrim(p.Brand, f.Brand) {
		return false
	}
	if f.Color != "" && !equalFoldTrim(p.Color.Name, f.Color) {
		return false
	}
	if f.Size != "" {
		if _, ok := p.StockFor(f.Size); !ok {
			return false
		}
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	return true
}

func sortProducts(list []domain.Product, sortBy string) {
	slices.SortStableFunc(list, func(a, b domain.Product) int {
		var c int
		switch sortBy {
		case SortPriceAsc:
			c = cmp.Compare(a.Price, b.Price)
		case SortPriceDesc:
			c = cmp.Compare(b.Price, a.Price)
		case SortRating:
			c = cmp.Compare(b.Ratings.Average, a.Ratings.Average)
		default:
			c = b.CreatedAt.Compare(a.CreatedAt)
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// CartRepository implementation on wrapper type
type MemoryCarts struct{ store *MemoryStore }

func NewMemoryCarts(store *MemoryStore) *MemoryCarts { return &MemoryCarts{store: store} }

func (mc *MemoryCarts) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	mc.store.mu.RLock()
	defer mc.store.mu.RUnlock()
	c, ok := mc.store.cartsByUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (mc *MemoryCarts) Save(ctx context.Context, c *domain.Cart) error {
	mc.store.mu.Lock()
	defer mc.store.mu.Unlock()
	now := time.Now().UTC()
	if old, ok := mc.store.cartsByUser[c.UserID]; ok {
		c.ID = old.ID
		c.CreatedAt = old.CreatedAt
		c.Version = old.Version + 1
	} else {
		c.ID = NewID()
		c.CreatedAt = now
		c.Version = 1
	}
	c.UpdatedAt = now
	mc.store.cartsByUser[c.UserID] = *c.Clone()
	return nil
}

// OrderRepository implementation on wrapper type
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.mu.Lock()
	defer mo.store.mu.Unlock()
	o.ID = NewID()
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	o.Version = 1
	o.RecalculateTotal()
	mo.store.ordersByID[o.ID] = *o.Clone()
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	mo.store.mu.RLock()
	defer mo.store.mu.RUnlock()
	o, ok := mo.store.ordersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o.Clone(), nil
}

func (mo *MemoryOrders) Update(ctx context.Context, o *domain.Order) error {
	mo.store.mu.Lock()
	defer mo.store.mu.Unlock()
	stored, ok := mo.store.ordersByID[o.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != o.Version {
		return ErrConflict
	}
	o.Version++
	o.UpdatedAt = time.Now().UTC()
	o.RecalculateTotal()
	mo.store.ordersByID[o.ID] = *o.Clone()
	return nil
}

func (mo *MemoryOrders) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return mo.collect(func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (mo *MemoryOrders) List(ctx context.Context) ([]domain.Order, error) {
	return mo.collect(func(*domain.Order) bool { return true }), nil
}

func (mo *MemoryOrders) Count(ctx context.Context) (int64, error) {
	mo.store.mu.RLock()
	defer mo.store.mu.RUnlock()
	return int64(len(mo.store.ordersByID)), nil
}

func (mo *MemoryOrders) DeliveredRevenue(ctx context.Context) (float64, error) {
	mo.store.mu.RLock()
	defer mo.store.mu.RUnlock()
	sum := decimal.Zero
	for _, o := range mo.store.ordersByID {
		if o.Status == domain.OrderStatusDelivered {
			sum = sum.Add(decimal.NewFromFloat(o.TotalAmount))
		}
	}
	return domain.RoundMoney(sum), nil
}

func (mo *MemoryOrders) CreatedSince(ctx context.Context, since time.Time) ([]domain.Order, error) {
	return mo.collect(func(o *domain.Order) bool { return !o.CreatedAt.Before(since) }), nil
}

func (mo *MemoryOrders) TopSelling(ctx context.Context, limit int) ([]ProductSales, error) {
	mo.store.mu.RLock()
	sold := make(map[string]int)
	for _, o := range mo.store.ordersByID {
		if o.Status != domain.OrderStatusDelivered {
			continue
		}
		for _, it := range o.Items {
			sold[it.ProductID] += it.Quantity
		}
	}
	mo.store.mu.RUnlock()

	out := make([]ProductSales, 0, len(sold))
	for id, n := range sold {
		out = append(out, ProductSales{ProductID: id, TotalSold: n})
	}
	slices.SortFunc(out, func(a, b ProductSales) int {
		if c := cmp.Compare(b.TotalSold, a.TotalSold); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// collect возвращает копии заказов, подходящих под условие, новые первыми
func (mo *MemoryOrders) collect(keep func(*domain.Order) bool) []domain.Order {
	mo.store.mu.RLock()
	defer mo.store.mu.RUnlock()
	out := make([]domain.Order, 0)
	for _, o := range mo.store.ordersByID {
		if keep(&o) {
			out = append(out, *o.Clone())
		}
	}
	slices.SortFunc(out, func(a, b domain.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

// UserRepository implementation on wrapper type
type MemoryUsers struct{ store *MemoryStore }

func NewMemoryUsers(store *MemoryStore) *MemoryUsers { return &MemoryUsers{store: store} }

func (us *MemoryUsers) Create(ctx context.Context, u *domain.User) error {
	us.store.mu.Lock()
	defer us.store.mu.Unlock()
	u.Email = domain.NormalizeEmail(u.Email)
	for _, existing := range us.store.usersByID {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	u.ID = NewID()
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	us.store.usersByID[u.ID] = *u.Clone()
	return nil
}

func (us *MemoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	us.store.mu.RLock()
	defer us.store.mu.RUnlock()
	u, ok := us.store.usersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (us *MemoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	us.store.mu.RLock()
	defer us.store.mu.RUnlock()
	for _, u := range us.store.usersByID {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (us *MemoryUsers) Update(ctx context.Context, u *domain.User) error {
	us.store.mu.Lock()
	defer us.store.mu.Unlock()
	old, ok := us.store.usersByID[u.ID]
	if !ok {
		return ErrNotFound
	}
	u.Email = domain.NormalizeEmail(u.Email)
	for id, existing := range us.store.usersByID {
		if id != u.ID && existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	u.CreatedAt = old.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	us.store.usersByID[u.ID] = *u.Clone()
	return nil
}

func (us *MemoryUsers) Delete(ctx context.Context, id string) error {
	us.store.mu.Lock()
	defer us.store.mu.Unlock()
	if _, ok := us.store.usersByID[id]; !ok {
		return ErrNotFound
	}
	delete(us.store.usersByID, id)
	return nil
}

func (us *MemoryUsers) List(ctx context.Context) ([]domain.User, error) {
	us.store.mu.RLock()
	defer us.store.mu.RUnlock()
	out := make([]domain.User, 0, len(us.store.usersByID))
	for _, u := range us.store.usersByID {
		out = append(out, *u.Clone())
	}
	slices.SortFunc(out, func(a, b domain.User) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (us *MemoryUsers) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	us.store.mu.RLock()
	defer us.store.mu.RUnlock()
	var n int64
	for _, u := range us.store.usersByID {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}
