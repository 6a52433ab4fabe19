package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

const DefaultRazorpayURL = "https://api.razorpay.com"

type RazorpayConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// RazorpayGateway создаёт заказы через REST API Razorpay.
// Вызовы идут через circuit breaker: после серии отказов шлюз не дёргается, пока breaker открыт.
type RazorpayGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*GatewayOrder]
}

func NewRazorpayGateway(cfg RazorpayConfig) *RazorpayGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultRazorpayURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	st := gobreaker.Settings{
		Name:        "razorpay",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		// отказ шлюза по содержимому запроса не говорит о его недоступности
		IsSuccessful: func(err error) bool {
			var rejected *rejectedError
			return err == nil || errors.As(err, &rejected)
		},
	}
	return &RazorpayGateway{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		client:    &http.Client{Timeout: cfg.Timeout},
		breaker:   gobreaker.NewCircuitBreaker[*GatewayOrder](st),
	}
}

var _ Gateway = (*RazorpayGateway)(nil)

func (g *RazorpayGateway) KeyID() string { return g.keyID }

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error) {
	order, err := g.breaker.Execute(func() (*GatewayOrder, error) {
		return g.createOrder(ctx, req)
	})
	if err != nil {
		if errors.Is(err, ErrGateway) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return order, nil
}

// rejectedError шлюз отклонил запрос (4xx кроме 429)
type rejectedError struct {
	status int
	msg    string
}

func (e *rejectedError) Error() string { return e.msg }
func (e *rejectedError) Unwrap() error { return ErrGateway }

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (g *RazorpayGateway) createOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.SetBasicAuth(g.keyID, g.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGateway, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%w: unexpected status %d", ErrGateway, resp.StatusCode)
		var apiErr razorpayError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Description != "" {
			err = fmt.Errorf("%w: %s: %s", ErrGateway, apiErr.Error.Code, apiErr.Error.Description)
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, &rejectedError{status: resp.StatusCode, msg: err.Error()}
		}
		return nil, err
	}

	var order GatewayOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: response without order id", ErrGateway)
	}
	return &order, nil
}
