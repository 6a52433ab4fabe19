package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/payment"
	"storefront/internal/repository"
)

func TestOrder_Create_COD(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "buyer@example.com")
	a := f.product(t, "A", 40, domain.SizeStock{Size: domain.SizeM, Quantity: 5})
	b := f.product(t, "B", 40, domain.SizeStock{Size: domain.SizeL, Quantity: 2})

	if _, err := f.carts.AddItem(ctx, u.ID, a.ID, domain.SizeM, 2); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := f.carts.AddItem(ctx, u.ID, b.ID, domain.SizeL, 1); err != nil {
		t.Fatalf("add b: %v", err)
	}

	placed, err := f.order.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodCashOnDelivery)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	o := placed.Order
	if placed.Gateway != nil || placed.KeyID != "" {
		t.Fatalf("cash on delivery must not touch the gateway")
	}
	// 120 > 100: бесплатная доставка, налог 15%
	if o.TotalPrice != 120 || o.ShippingPrice != 0 || o.TaxPrice != 18 || o.TotalAmount != 138 {
		t.Fatalf("unexpected totals: items=%v ship=%v tax=%v total=%v", o.TotalPrice, o.ShippingPrice, o.TaxPrice, o.TotalAmount)
	}
	if o.Status != domain.OrderStatusPending || o.IsPaid || o.PaymentResult.Status != domain.PaymentStatusPending {
		t.Fatalf("unexpected initial state: %+v", o)
	}
	if got := f.stock(t, a.ID, domain.SizeM); got != 3 {
		t.Fatalf("stock A want 3, got %d", got)
	}
	if got := f.stock(t, b.ID, domain.SizeL); got != 1 {
		t.Fatalf("stock B want 1, got %d", got)
	}

	cart, err := f.carts.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if !cart.IsEmpty() || cart.TotalAmount != 0 || cart.TotalItems != 0 {
		t.Fatalf("cart must be cleared after order: %+v", cart)
	}
	if len(f.gateway.requests) != 0 {
		t.Fatalf("gateway called for COD order")
	}
	if types := f.events.types(); len(types) != 1 || types[0] != events.OrderCreated {
		t.Fatalf("unexpected events: %v", types)
	}
}

func TestOrder_Create_ShippingFeeBelowThreshold(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "buyer@example.com")
	p := f.product(t, "A", 50, domain.SizeStock{Size: domain.SizeM, Quantity: 5})
	if _, err := f.carts.AddItem(ctx, u.ID, p.ID, domain.SizeM, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	placed, err := f.order.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodCashOnDelivery)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	o := placed.Order
	if o.ShippingPrice != 10 || o.TaxPrice != 7.5 || o.TotalAmount != 67.5 {
		t.Fatalf("unexpected totals: ship=%v tax=%v total=%v", o.ShippingPrice, o.TaxPrice, o.TotalAmount)
	}
	if o.TotalAmount != domain.SumMoney(o.TotalPrice, o.ShippingPrice, o.TaxPrice) {
		t.Fatalf("total must equal the sum of its parts")
	}
}

func TestOrder_Create_EmptyCart(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "buyer@example.com")

	if _, err := f.order.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodCashOnDelivery); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart error without a cart, got %v", err)
	}
	if _, err := f.carts.Get(ctx, u.ID); err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if _, err := f.order.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodCashOnDelivery); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart error, got %v", err)
	}
}

func TestOrder_Create_InvalidInput(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "buyer@example.com")

	bad := testAddress
	bad.Phone = "12345"
	if _, err := f.order.CreateOrder(ctx, u.ID, bad, domain.PaymentMethodCashOnDelivery); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid phone, got %v", err)
	}
	if _, err := f.order.CreateOrder(ctx, u.ID, testAddress, "paypal"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid payment method, got %v", err)
	}
}

func TestOrder_Create_StockChangedSinceAdd_RollsBack(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "buyer@example.com")
	a := f.product(t, "A", 10, domain.SizeStock{Size: domain.SizeM, Quantity: 5})
	b := f.product(t, "B", 10, domain.SizeStock{Size: domain.SizeM, Quantity: 5})

	if _, err := f.carts.AddItem(ctx, u.ID, a.ID, domain.SizeM, 2); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := f.carts.AddItem(ctx, u.ID, b.ID, domain.SizeM, 4); err != nil {
		t.Fatalf("add b: %v", err)
	}
	// кто-то раскупил B после добавления в корзину
	if _, err := f.products.UpdateStock(ctx, b.ID, []domain.SizeStock{{Size: domain.SizeM, Quantity: 1}}); err != nil {
		t.Fatalf("update stock: %v", err)
	}

	_, err := f.order.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodCashOnDelivery)
	if !errors.Is(err, ErrNotEnoughStock) || !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected not enough stock, got %v", err)
	}
	if got := f.stock(t, a.ID, domain.SizeM); got != 5 {
		t.Fatalf("first line must be released, stock %d", got)
	}
	if got := f.stock(t, b.ID, domain.SizeM); got != 1 {
		t.Fatalf("stock B changed: %d", got)
	}

	cart, err := f.carts.Current(ctx, u.ID)
	if err != nil {
		t.Fatalf("current cart: %v", err)
	}
	if len(cart.Items) != 2 {
		t.Fatalf("cart must be kept on failure, items=%d", len(cart.Items))
	}
	if n, _ := f.orders.Count(ctx); n != 0 {
		t.Fatalf("no order must be stored, got %d", n)
	}
}

func TestOrder_Create_Online(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "buyer@example.com")
	p := f.product(t, "A", 20, domain.SizeStock{Size: domain.SizeS, Quantity: 3})
	if _, err := f.carts.AddItem(ctx, u.ID, p.ID, domain.SizeS, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	placed, err := f.order.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodRazorpay)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if placed.Gateway == nil || placed.KeyID != "rzp_test" {
		t.Fatalf("gateway order must be returned: %+v", placed)
	}
	if len(f.gateway.requests) != 1 {
		t.Fatalf("expected one gateway call, got %d", len(f.gateway.requests))
	}
	req := f.gateway.requests[0]
	// 20 + 10 доставка + 3 налог = 33.00
	if req.Amount != 3300 || req.Currency != "INR" || req.Receipt != placed.Order.ID {
		t.Fatalf("unexpected gateway request: %+v", req)
	}
	stored, err := f.orders.GetByID(ctx, placed.Order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.PaymentResult.Razorpay.OrderID != placed.Gateway.ID {
		t.Fatalf("gateway order id not stored: %+v", stored.PaymentResult)
	}
	if got := f.stock(t, p.ID, domain.SizeS); got != 2 {
		t.Fatalf("online order must reserve stock, got %d", got)
	}
}

func TestOrder_Create_GatewayFailure(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "buyer@example.com")
	p := f.product(t, "A", 20, domain.SizeStock{Size: domain.SizeS, Quantity: 3})
	if _, err := f.carts.AddItem(ctx, u.ID, p.ID, domain.SizeS, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	f.gateway.err = fmt.Errorf("%w: connection refused", payment.ErrGateway)

	_, err := f.order.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodRazorpay)
	if !errors.Is(err, payment.ErrGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if got := f.stock(t, p.ID, domain.SizeS); got != 3 {
		t.Fatalf("stock must be released, got %d", got)
	}
	list, _ := f.order.MyOrders(ctx, u.ID)
	if len(list) != 1 {
		t.Fatalf("expected abandoned order to be kept, got %d", len(list))
	}
	if list[0].Status != domain.OrderStatusCancelled || list[0].PaymentResult.Status != domain.PaymentStatusFailed {
		t.Fatalf("abandoned order state: %s / %s", list[0].Status, list[0].PaymentResult.Status)
	}
	cart, _ := f.carts.Current(ctx, u.ID)
	if cart == nil || len(cart.Items) != 1 {
		t.Fatalf("cart must survive a gateway failure")
	}
}

func TestOrder_Create_DisabledGateway(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.order = NewOrderService(OrderDeps{
		Products: f.store,
		Orders:   f.orders,
		Carts:    f.carts,
	})
	u := f.user(t, "buyer@example.com")
	p := f.product(t, "A", 20, domain.SizeStock{Size: domain.SizeS, Quantity: 3})
	if _, err := f.carts.AddItem(ctx, u.ID, p.ID, domain.SizeS, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.order.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodRazorpay); !errors.Is(err, payment.ErrGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if got := f.stock(t, p.ID, domain.SizeS); got != 3 {
		t.Fatalf("stock must be released, got %d", got)
	}
}

func placeOnline(t *testing.T, f *fixture, u *domain.User) *PlacedOrder {
	t.Helper()
	ctx := context.Background()
	p := f.product(t, "Online", 200, domain.SizeStock{Size: domain.SizeM, Quantity: 10})
	if _, err := f.carts.AddItem(ctx, u.ID, p.ID, domain.SizeM, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	placed, err := f.order.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodRazorpay)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return placed
}

func TestOrder_VerifyPayment_Valid(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "buyer@example.com")
	placed := placeOnline(t, f, u)

	gwID := placed.Gateway.ID
	o, err := f.order.VerifyPayment(ctx, u, placed.Order.ID, PaymentConfirmation{
		GatewayOrderID:   gwID,
		GatewayPaymentID: "pay_1",
		Signature:        f.signer.Sign(gwID, "pay_1"),
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !o.IsPaid || o.PaidAt == nil || o.Status != domain.OrderStatusProcessing {
		t.Fatalf("order not marked paid: %+v", o)
	}
	if o.PaymentResult.Status != domain.PaymentStatusCompleted || o.PaymentResult.EmailAddress != u.Email || o.PaymentResult.Razorpay.PaymentID != "pay_1" {
		t.Fatalf("payment result not recorded: %+v", o.PaymentResult)
	}

	_, err = f.order.VerifyPayment(ctx, u, placed.Order.ID, PaymentConfirmation{
		GatewayOrderID: gwID, GatewayPaymentID: "pay_1", Signature: f.signer.Sign(gwID, "pay_1"),
	})
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected already paid, got %v", err)
	}
	types := f.events.types()
	if types[len(types)-1] != events.OrderPaid {
		t.Fatalf("expected order.paid event, got %v", types)
	}
}

func TestOrder_VerifyPayment_BadSignature(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "buyer@example.com")
	placed := placeOnline(t, f, u)

	_, err := f.order.VerifyPayment(ctx, u, placed.Order.ID, PaymentConfirmation{
		GatewayOrderID: placed.Gateway.ID, GatewayPaymentID: "pay_1", Signature: "deadbeef",
	})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
	o, _ := f.orders.GetByID(ctx, placed.Order.ID)
	if o.IsPaid || o.PaymentResult.Status != domain.PaymentStatusFailed {
		t.Fatalf("order must stay unpaid with failed payment: %+v", o)
	}

	// подпись верна, но для чужого заказа шлюза
	other := "order_gw_other"
	_, err = f.order.VerifyPayment(ctx, u, placed.Order.ID, PaymentConfirmation{
		GatewayOrderID: other, GatewayPaymentID: "pay_2", Signature: f.signer.Sign(other, "pay_2"),
	})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected mismatch to be rejected, got %v", err)
	}
}

func TestOrder_VerifyPayment_Rules(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	owner := f.user(t, "buyer@example.com")
	stranger := f.user(t, "other@example.com")
	placed := placeOnline(t, f, owner)
	gwID := placed.Gateway.ID
	pc := PaymentConfirmation{GatewayOrderID: gwID, GatewayPaymentID: "pay_1", Signature: f.signer.Sign(gwID, "pay_1")}

	if _, err := f.order.VerifyPayment(ctx, owner, placed.Order.ID, PaymentConfirmation{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing fields error, got %v", err)
	}
	if _, err := f.order.VerifyPayment(ctx, stranger, placed.Order.ID, pc); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if _, err := f.order.VerifyPayment(ctx, owner, "missing", pc); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.order.UpdateStatus(ctx, placed.Order.ID, domain.OrderStatusCancelled, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.order.VerifyPayment(ctx, owner, placed.Order.ID, pc); !errors.Is(err, ErrOrderCancelled) {
		t.Fatalf("expected cancelled, got %v", err)
	}
}

func TestOrder_VerifyPayment_CODRejected(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "buyer@example.com")
	p := f.product(t, "A", 20, domain.SizeStock{Size: domain.SizeS, Quantity: 3})
	if _, err := f.carts.AddItem(ctx, u.ID, p.ID, domain.SizeS, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	placed, err := f.order.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodCashOnDelivery)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	pc := PaymentConfirmation{GatewayOrderID: "g", GatewayPaymentID: "p", Signature: f.signer.Sign("g", "p")}
	if _, err := f.order.VerifyPayment(ctx, u, placed.Order.ID, pc); !errors.Is(err, ErrNotOnlinePayment) {
		t.Fatalf("expected not online payment, got %v", err)
	}
}

func TestOrder_GetOrder_Access(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	owner := f.user(t, "buyer@example.com")
	stranger := f.user(t, "other@example.com")
	admin := f.adminUser(t)
	placed := placeOnline(t, f, owner)

	if _, err := f.order.GetOrder(ctx, owner, placed.Order.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := f.order.GetOrder(ctx, admin, placed.Order.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if _, err := f.order.GetOrder(ctx, stranger, placed.Order.ID); !errors.Is(err, ErrNotOwner) || !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected not owner, got %v", err)
	}
}

func TestOrder_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "buyer@example.com")
	p := f.product(t, "A", 20, domain.SizeStock{Size: domain.SizeS, Quantity: 5})

	place := func(qty int) *domain.Order {
		t.Helper()
		if _, err := f.carts.AddItem(ctx, u.ID, p.ID, domain.SizeS, qty); err != nil {
			t.Fatalf("add: %v", err)
		}
		placed, err := f.order.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodCashOnDelivery)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return placed.Order
	}

	// отмена возвращает резерв
	first := place(2)
	if got := f.stock(t, p.ID, domain.SizeS); got != 3 {
		t.Fatalf("stock after order: %d", got)
	}
	o, err := f.order.UpdateStatus(ctx, first.ID, domain.OrderStatusCancelled, "")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if o.Status != domain.OrderStatusCancelled || f.stock(t, p.ID, domain.SizeS) != 5 {
		t.Fatalf("cancel must release stock")
	}
	// повторная отмена не возвращает остатки дважды
	if _, err := f.order.UpdateStatus(ctx, first.ID, domain.OrderStatusCancelled, ""); err != nil {
		t.Fatalf("cancel again: %v", err)
	}
	if got := f.stock(t, p.ID, domain.SizeS); got != 5 {
		t.Fatalf("double release: %d", got)
	}

	// доставленный заказ не возвращает остатки при отмене
	second := place(1)
	o, err = f.order.UpdateStatus(ctx, second.ID, domain.OrderStatusShipped, "TRACK-1")
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if o.TrackingNumber != "TRACK-1" {
		t.Fatalf("tracking number not stored")
	}
	o, err = f.order.UpdateStatus(ctx, second.ID, domain.OrderStatusDelivered, "")
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if o.DeliveredAt == nil || o.TrackingNumber != "TRACK-1" {
		t.Fatalf("delivered state wrong: %+v", o)
	}
	if _, err := f.order.UpdateStatus(ctx, second.ID, domain.OrderStatusCancelled, ""); err != nil {
		t.Fatalf("cancel delivered: %v", err)
	}
	if got := f.stock(t, p.ID, domain.SizeS); got != 4 {
		t.Fatalf("shipped stock must stay committed, got %d", got)
	}

	if _, err := f.order.UpdateStatus(ctx, second.ID, "lost", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected unknown status error, got %v", err)
	}
	if _, err := f.order.UpdateStatus(ctx, "missing", domain.OrderStatusShipped, ""); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOrder_VerifyPayment_CancelledConcurrently(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "buyer@example.com")
	p := f.product(t, "A", 20, domain.SizeStock{Size: domain.SizeS, Quantity: 5})
	if _, err := f.carts.AddItem(ctx, u.ID, p.ID, domain.SizeS, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	placed, err := f.order.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodRazorpay)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := placed.Order.ID

	orders := &interleavedOrders{MemoryOrders: f.orders}
	orders.afterRead = func() {
		if _, err := f.order.UpdateStatus(ctx, id, domain.OrderStatusCancelled, ""); err != nil {
			t.Errorf("cancel: %v", err)
		}
	}
	deps := f.deps
	deps.Orders = orders
	verifier := NewOrderService(deps)

	gwID := placed.Gateway.ID
	_, err = verifier.VerifyPayment(ctx, u, id, PaymentConfirmation{
		GatewayOrderID:   gwID,
		GatewayPaymentID: "pay_1",
		Signature:        f.signer.Sign(gwID, "pay_1"),
	})
	if !errors.Is(err, ErrOrderChanged) || !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected order changed error, got %v", err)
	}

	stored, err := f.orders.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != domain.OrderStatusCancelled || stored.IsPaid || stored.StockReserved {
		t.Fatalf("cancelled order was overwritten: status=%s paid=%v reserved=%v", stored.Status, stored.IsPaid, stored.StockReserved)
	}
	if got := f.stock(t, p.ID, domain.SizeS); got != 5 {
		t.Fatalf("stock after cancel: got %d want 5", got)
	}
	if _, err := f.order.UpdateStatus(ctx, id, domain.OrderStatusCancelled, ""); err != nil {
		t.Fatalf("cancel again: %v", err)
	}
	if got := f.stock(t, p.ID, domain.SizeS); got != 5 {
		t.Fatalf("stock released twice: got %d want 5", got)
	}
}

func TestOrder_UpdateStatus_StaleWriteRejected(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "buyer@example.com")
	p := f.product(t, "A", 20, domain.SizeStock{Size: domain.SizeS, Quantity: 5})
	if _, err := f.carts.AddItem(ctx, u.ID, p.ID, domain.SizeS, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	placed, err := f.order.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodCashOnDelivery)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := placed.Order.ID

	// две отмены читают заказ одновременно; остатки возвращает только та, что записалась
	orders := &interleavedOrders{MemoryOrders: f.orders}
	orders.afterRead = func() {
		if _, err := f.order.UpdateStatus(ctx, id, domain.OrderStatusCancelled, ""); err != nil {
			t.Errorf("first cancel: %v", err)
		}
	}
	deps := f.deps
	deps.Orders = orders
	if _, err := NewOrderService(deps).UpdateStatus(ctx, id, domain.OrderStatusCancelled, ""); !errors.Is(err, ErrOrderChanged) {
		t.Fatalf("expected order changed error, got %v", err)
	}
	if got := f.stock(t, p.ID, domain.SizeS); got != 5 {
		t.Fatalf("stock: got %d want 5", got)
	}
}

func TestOrder_Create_GatewayIDWriteFails(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.user(t, "buyer@example.com")
	p := f.product(t, "A", 20, domain.SizeStock{Size: domain.SizeS, Quantity: 3})
	if _, err := f.carts.AddItem(ctx, u.ID, p.ID, domain.SizeS, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	deps := f.deps
	deps.Orders = &failingOrders{MemoryOrders: f.orders, failUpdates: 1}
	svc := NewOrderService(deps)

	if _, err := svc.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodRazorpay); err == nil {
		t.Fatalf("expected error when the gateway id cannot be stored")
	}
	if got := f.stock(t, p.ID, domain.SizeS); got != 3 {
		t.Fatalf("stock must be released, got %d", got)
	}
	list, _ := f.order.MyOrders(ctx, u.ID)
	if len(list) != 1 || list[0].Status != domain.OrderStatusCancelled || list[0].StockReserved {
		t.Fatalf("order must be cancelled: %+v", list)
	}
	cart, _ := f.carts.Current(ctx, u.ID)
	if cart == nil || len(cart.Items) != 1 {
		t.Fatalf("cart must survive")
	}
}

func TestOrder_ZeroPricingIsKept(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	deps := f.deps
	deps.Pricing = &domain.Pricing{}
	svc := NewOrderService(deps)

	u := f.user(t, "buyer@example.com")
	p := f.product(t, "A", 50, domain.SizeStock{Size: domain.SizeS, Quantity: 3})
	if _, err := f.carts.AddItem(ctx, u.ID, p.ID, domain.SizeS, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	placed, err := svc.CreateOrder(ctx, u.ID, testAddress, domain.PaymentMethodCashOnDelivery)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	o := placed.Order
	if o.ShippingPrice != 0 || o.TaxPrice != 0 || o.TotalAmount != 50 {
		t.Fatalf("zero pricing replaced by defaults: %+v", o)
	}
}
