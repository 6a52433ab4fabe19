package payment

import (
	"context"
	"errors"
)

// ErrGateway ошибка обращения к платёжному шлюзу (недоступен, отказал, разомкнут breaker)
var ErrGateway = errors.New("payment gateway error")

// CreateOrderRequest заказ в шлюзе; сумма в минимальных единицах валюты
type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// GatewayOrder ответ шлюза, который отдаётся клиенту для оплаты
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status,omitempty"`
}

type Gateway interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error)
	// KeyID публичный ключ, который нужен клиенту для checkout
	KeyID() string
}

// Disabled шлюз без ключей: любая онлайн-оплата отклоняется
type Disabled struct{}

func (Disabled) CreateOrder(context.Context, CreateOrderRequest) (*GatewayOrder, error) {
	return nil, errors.Join(ErrGateway, errors.New("online payments are not configured"))
}

func (Disabled) KeyID() string { return "" }
