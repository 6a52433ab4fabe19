package events

import (
	"context"
	"time"
)

// Типы событий жизненного цикла заказа
const (
	OrderCreated       = "order.created"
	OrderPaid          = "order.paid"
	OrderPaymentFailed = "order.payment_failed"
	OrderStatusChanged = "order.status_changed"
)

// OrderEvent сообщение о заказе; ключ партиционирования OrderID
type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	TotalAmount   float64   `json:"totalAmount"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
	Close() error
}

// NopPublisher используется, когда брокеры не настроены
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (NopPublisher) Close() error { return nil }
