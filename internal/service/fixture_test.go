package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/payment"
	"storefront/internal/repository"
)

const testSecret = "gateway-secret"

type fakeGateway struct {
	mu       sync.Mutex
	requests []payment.CreateOrderRequest
	err      error
}

func (g *fakeGateway) CreateOrder(_ context.Context, req payment.CreateOrderRequest) (*payment.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	return &payment.GatewayOrder{ID: "order_gw_" + req.Receipt, Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt}, nil
}

func (g *fakeGateway) KeyID() string { return "rzp_test" }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fixture все сервисы поверх одного in-memory хранилища
type fixture struct {
	store    *repository.MemoryStore
	users    *repository.MemoryUsers
	orders   *repository.MemoryOrders
	products *ProductService
	carts    *CartService
	order    *OrderService
	account  *UserService
	admin    *AdminService
	gateway  *fakeGateway
	events   *recordingPublisher
	signer   *payment.Signer
	deps     OrderDeps
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	users := repository.NewMemoryUsers(store)
	orders := repository.NewMemoryOrders(store)
	carts := NewCartService(repository.NewMemoryCarts(store), store, nil, zerolog.Nop())
	gw := &fakeGateway{}
	pub := &recordingPublisher{}
	signer := payment.NewSigner(testSecret)
	deps := OrderDeps{
		Products:  store,
		Orders:    orders,
		Carts:     carts,
		Gateway:   gw,
		Signer:    signer,
		Publisher: pub,
		Currency:  "INR",
		Log:       zerolog.Nop(),
	}
	return &fixture{
		store:    store,
		users:    users,
		orders:   orders,
		products: NewProductService(store),
		carts:    carts,
		order:    NewOrderService(deps),
		account:  NewUserService(users, store, auth.NewTokenManager("jwt-secret", 0), zerolog.Nop()),
		admin:    NewAdminService(users, store, orders),
		gateway:  gw,
		events:   pub,
		signer:   signer,
		deps:     deps,
	}
}

func (f *fixture) product(t *testing.T, name string, price float64, sizes ...domain.SizeStock) *domain.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), domain.Product{
		Name:        name,
		Description: name + " description",
		Price:       price,
		Images:      []string{name + ".jpg"},
		Category:    domain.CategoryUnisex,
		SubCategory: "tshirts",
		Sizes:       sizes,
		Color:       domain.Color{Name: "Black", Code: "#000"},
		Brand:       "Acme",
		Material:    "cotton",
	})
	if err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return p
}

func (f *fixture) user(t *testing.T, email string) *domain.User {
	t.Helper()
	res, err := f.account.Signup(context.Background(), SignupInput{FirstName: "Test", LastName: "User", Email: email, Password: "secret1"})
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	return res.User
}

func (f *fixture) adminUser(t *testing.T) *domain.User {
	t.Helper()
	u := f.user(t, "admin@example.com")
	role := domain.RoleAdmin
	u, err := f.admin.UpdateUser(context.Background(), u.ID, UserUpdate{Role: &role})
	if err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	return u
}

func (f *fixture) stock(t *testing.T, productID string, size domain.Size) int {
	t.Helper()
	p, err := f.store.GetByID(context.Background(), productID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	q, _ := p.StockFor(size)
	return q
}

var testAddress = domain.ShippingAddress{
	Street: "1 Main St", City: "Pune", State: "MH", Country: "India", ZipCode: "411001", Phone: "9876543210",
}

// interleavedProducts выполняет onAccess один раз перед первым обращением к товару,
// имитируя списание остатка, пришедшее посреди чужой операции
type interleavedProducts struct {
	*repository.MemoryStore
	once     sync.Once
	onAccess func()
}

func (r *interleavedProducts) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := r.MemoryStore.GetByID(ctx, id)
	r.once.Do(r.onAccess)
	return p, err
}

func (r *interleavedProducts) AddReview(ctx context.Context, id string, rev domain.Review) (*domain.Product, error) {
	r.once.Do(r.onAccess)
	return r.MemoryStore.AddReview(ctx, id, rev)
}

// interleavedOrders выполняет afterRead один раз сразу после первого чтения заказа
type interleavedOrders struct {
	*repository.MemoryOrders
	once      sync.Once
	afterRead func()
}

func (r *interleavedOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := r.MemoryOrders.GetByID(ctx, id)
	r.once.Do(r.afterRead)
	return o, err
}

// failingOrders отказывает в записи заказа, пока failUpdates > 0
type failingOrders struct {
	*repository.MemoryOrders
	failUpdates int
}

func (r *failingOrders) Update(ctx context.Context, o *domain.Order) error {
	if r.failUpdates > 0 {
		r.failUpdates--
		return errors.New("write failed")
	}
	return r.MemoryOrders.Update(ctx, o)
}
