package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/payment"
	"storefront/internal/repository"
)

// cartSource то, что нужно оформлению заказа от корзины
type cartSource interface {
	Current(ctx context.Context, userID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) (*domain.Cart, error)
}

// OrderDeps зависимости OrderService
type OrderDeps struct {
	Products  repository.ProductRepository
	Orders    repository.OrderRepository
	Carts     cartSource
	Gateway   payment.Gateway
	Signer    *payment.Signer
	Publisher events.Publisher
	Pricing   *domain.Pricing // nil означает domain.DefaultPricing
	Currency  string
	Log       zerolog.Logger
}

// OrderService реализует логику заказов: оформление с резервом остатков, подтверждение оплаты, смена статуса.
// Остатки резервируются при оформлении для обоих способов оплаты и возвращаются на склад
// при любой ошибке оформления, отказе шлюза и отмене заказа, пока резерв не отгружен.
type OrderService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	carts    cartSource
	gateway  payment.Gateway
	signer   *payment.Signer
	events   events.Publisher
	pricing  domain.Pricing
	currency string
	log      zerolog.Logger
	now      func() time.Time
}

func NewOrderService(d OrderDeps) *OrderService {
	if d.Gateway == nil {
		d.Gateway = payment.Disabled{}
	}
	if d.Publisher == nil {
		d.Publisher = events.NopPublisher{}
	}
	pricing := domain.DefaultPricing()
	if d.Pricing != nil {
		pricing = *d.Pricing
	}
	if d.Currency == "" {
		d.Currency = "INR"
	}
	return &OrderService{
		products: d.Products,
		orders:   d.Orders,
		carts:    d.Carts,
		gateway:  d.Gateway,
		signer:   d.Signer,
		events:   d.Publisher,
		pricing:  pricing,
		currency: d.Currency,
		log:      d.Log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PlacedOrder результат оформления; Gateway заполнен только для онлайн-оплаты
type PlacedOrder struct {
	Order   *domain.Order         `json:"order"`
	Gateway *payment.GatewayOrder `json:"razorpayOrder,omitempty"`
	KeyID   string                `json:"key,omitempty"`
}

// CreateOrder оформляет заказ из корзины пользователя
func (s *OrderService) CreateOrder(ctx context.Context, userID string, addr domain.ShippingAddress, method domain.PaymentMethod) (*PlacedOrder, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, method)
	}
	if err := addr.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	cart, err := s.carts.Current(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && cart.IsEmpty()) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}

	totals := s.pricing.Compute(cart.TotalAmount)
	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, domain.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Size:      it.Size,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	if err := s.reserve(ctx, items); err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: addr,
		PaymentMethod:   method,
		PaymentResult:   domain.PaymentResult{Status: domain.PaymentStatusPending},
		TotalPrice:      totals.TotalPrice,
		ShippingPrice:   totals.ShippingPrice,
		TaxPrice:        totals.TaxPrice,
		TotalAmount:     totals.TotalAmount,
		Status:          domain.OrderStatusPending,
		StockReserved:   true,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.release(ctx, items)
		return nil, err
	}

	placed := &PlacedOrder{Order: order}
	if method == domain.PaymentMethodRazorpay {
		gw, err := s.gateway.CreateOrder(ctx, payment.CreateOrderRequest{
			Amount:   domain.ToMinorUnits(order.TotalAmount),
			Currency: s.currency,
			Receipt:  order.ID,
			Notes:    map[string]string{"orderId": order.ID, "userId": userID},
		})
		if err != nil {
			s.abandon(ctx, order)
			return nil, err
		}
		order.PaymentResult.Razorpay.OrderID = gw.ID
		if err := s.saveOrder(ctx, order); err != nil {
			order.PaymentResult.Razorpay.OrderID = ""
			s.abandon(ctx, order)
			return nil, err
		}
		placed.Gateway = gw
		placed.KeyID = s.gateway.KeyID()
	}

	if _, err := s.carts.Clear(ctx, userID); err != nil {
		s.log.Error().Err(err).Str("order_id", order.ID).Str("user_id", userID).Msg("failed to clear cart after order")
	}
	s.publish(ctx, events.OrderCreated, order)
	return placed, nil
}

// reserve списывает остатки построчно; при первой неудаче возвращает уже списанное
func (s *OrderService) reserve(ctx context.Context, items []domain.OrderItem) error {
	for i, it := range items {
		ok, err := s.products.DecrementStock(ctx, it.ProductID, it.Size, it.Quantity)
		if err == nil && !ok {
			err = s.stockError(ctx, it)
		}
		if err != nil {
			s.release(ctx, items[:i])
			return err
		}
	}
	return nil
}

// stockError перечитывает товар, чтобы объяснить, почему условное списание не сработало
func (s *OrderService) stockError(ctx context.Context, it domain.OrderItem) error {
	p, err := s.products.GetByID(ctx, it.ProductID)
	if err != nil {
		return fmt.Errorf("product %s: %w", it.Name, err)
	}
	available, listed := p.StockFor(it.Size)
	if !listed {
		return fmt.Errorf("%w: %s has no size %s", ErrSizeUnavailable, p.Name, it.Size)
	}
	return notEnoughStock(p.Name, it.Size, it.Quantity, available)
}

// release компенсация резерва; выполняется даже если запрос клиента уже отменён
func (s *OrderService) release(ctx context.Context, items []domain.OrderItem) {
	ctx = context.WithoutCancel(ctx)
	for _, it := range items {
		if err := s.products.IncrementStock(ctx, it.ProductID, it.Size, it.Quantity); err != nil {
			s.log.Error().Err(err).
				Str("product_id", it.ProductID).
				Str("size", string(it.Size)).
				Int("quantity", it.Quantity).
				Msg("failed to release reserved stock")
		}
	}
}

// abandon отменяет заказ, который не удалось довести до оплаты.
// Если заказ успел изменить другой запрос, резервом распоряжается он.
func (s *OrderService) abandon(ctx context.Context, order *domain.Order) {
	ctx = context.WithoutCancel(ctx)
	items := order.Items
	order.StockReserved = false
	order.Status = domain.OrderStatusCancelled
	order.PaymentResult.Status = domain.PaymentStatusFailed
	err := s.orders.Update(ctx, order)
	if errors.Is(err, repository.ErrConflict) {
		s.log.Warn().Str("order_id", order.ID).Msg("order changed concurrently, leaving stock to the other writer")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("order_id", order.ID).Msg("failed to cancel order after gateway error")
	}
	s.release(ctx, items)
}

// saveOrder условная запись заказа; параллельное изменение превращается в ErrOrderChanged
func (s *OrderService) saveOrder(ctx context.Context, o *domain.Order) error {
	err := s.orders.Update(ctx, o)
	if errors.Is(err, repository.ErrConflict) {
		return fmt.Errorf("order %s: %w", o.ID, ErrOrderChanged)
	}
	return err
}

// GetOrder заказ виден владельцу и администратору
func (s *OrderService) GetOrder(ctx context.Context, requester *domain.User, id string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order: %w", err)
	}
	if o.UserID != requester.ID && !requester.IsAdmin() {
		return nil, ErrNotOwner
	}
	return o, nil
}

func (s *OrderService) MyOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

// PaymentConfirmation данные, которые клиент получает от шлюза после оплаты
type PaymentConfirmation struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// VerifyPayment проверяет подпись шлюза и переводит заказ в оплаченный
func (s *OrderService) VerifyPayment(ctx context.Context, requester *domain.User, orderID string, pc PaymentConfirmation) (*domain.Order, error) {
	if pc.GatewayOrderID == "" || pc.GatewayPaymentID == "" || pc.Signature == "" {
		return nil, fmt.Errorf("%w: gateway order id, payment id and signature are required", ErrInvalidInput)
	}
	o, err := s.GetOrder(ctx, requester, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case o.IsPaid:
		return nil, ErrAlreadyPaid
	case o.Status == domain.OrderStatusCancelled:
		return nil, ErrOrderCancelled
	case o.PaymentMethod != domain.PaymentMethodRazorpay:
		return nil, ErrNotOnlinePayment
	}

	stored := o.PaymentResult.Razorpay.OrderID
	valid := s.signer != nil && s.signer.Verify(pc.GatewayOrderID, pc.GatewayPaymentID, pc.Signature) &&
		(stored == "" || stored == pc.GatewayOrderID)
	if !valid {
		o.PaymentResult.Status = domain.PaymentStatusFailed
		if err := s.saveOrder(ctx, o); err != nil {
			return nil, err
		}
		s.publish(ctx, events.OrderPaymentFailed, o)
		return nil, ErrInvalidSignature
	}

	now := s.now()
	o.IsPaid = true
	o.PaidAt = &now
	o.Status = domain.OrderStatusProcessing
	o.PaymentResult = domain.PaymentResult{
		Razorpay: domain.GatewayRef{
			OrderID:   pc.GatewayOrderID,
			PaymentID: pc.GatewayPaymentID,
			Signature: pc.Signature,
		},
		Status:       domain.PaymentStatusCompleted,
		UpdateTime:   &now,
		EmailAddress: requester.Email,
	}
	if err := s.saveOrder(ctx, o); err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderPaid, o)
	return o, nil
}

// UpdateStatus перезапись статуса администратором без таблицы переходов.
// Отгрузка фиксирует резерв; отмена неотгруженного заказа возвращает остатки.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, trackingNumber string) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order: %w", err)
	}

	wasReserved := o.StockReserved
	switch status {
	case domain.OrderStatusCancelled, domain.OrderStatusShipped:
		o.StockReserved = false
	case domain.OrderStatusDelivered:
		o.StockReserved = false
		now := s.now()
		o.DeliveredAt = &now
	}
	o.Status = status
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	// резерв возвращается только после того, как отмена записана
	if err := s.saveOrder(ctx, o); err != nil {
		return nil, err
	}
	if status == domain.OrderStatusCancelled && wasReserved {
		s.release(ctx, o.Items)
	}
	s.publish(ctx, events.OrderStatusChanged, o)
	return o, nil
}

func (s *OrderService) publish(ctx context.Context, typ string, o *domain.Order) {
	e := events.OrderEvent{
		Type:          typ,
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		TotalAmount:   o.TotalAmount,
		OccurredAt:    s.now(),
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), e); err != nil {
		s.log.Warn().Err(err).Str("order_id", o.ID).Str("event", typ).Msg("failed to publish order event")
	}
}
