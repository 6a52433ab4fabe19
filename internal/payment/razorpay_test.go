package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRazorpayGateway_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(13800), req.Amount)
		assert.Equal(t, "o1", req.Notes["orderId"])

		_ = json.NewEncoder(w).Encode(GatewayOrder{ID: "order_X", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"})
	}))
	defer srv.Close()

	g := NewRazorpayGateway(RazorpayConfig{BaseURL: srv.URL, KeyID: "key", KeySecret: "secret"})
	got, err := g.CreateOrder(context.Background(), CreateOrderRequest{
		Amount: 13800, Currency: "INR", Receipt: "o1", Notes: map[string]string{"orderId": "o1", "userId": "u1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_X", got.ID)
	assert.Equal(t, "key", g.KeyID())
}

func TestRazorpayGateway_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	g := NewRazorpayGateway(RazorpayConfig{BaseURL: srv.URL})
	_, err := g.CreateOrder(context.Background(), CreateOrderRequest{Amount: 1, Currency: "INR"})
	require.ErrorIs(t, err, ErrGateway)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestRazorpayGateway_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewRazorpayGateway(RazorpayConfig{BaseURL: srv.URL})
	for i := 0; i < 8; i++ {
		_, err := g.CreateOrder(context.Background(), CreateOrderRequest{Amount: 100, Currency: "INR"})
		require.ErrorIs(t, err, ErrGateway)
	}
	assert.Equal(t, int32(5), calls.Load())
}

func TestRazorpayGateway_RejectedRequestsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"receipt too long"}}`))
	}))
	defer srv.Close()

	g := NewRazorpayGateway(RazorpayConfig{BaseURL: srv.URL})
	for i := 0; i < 8; i++ {
		_, err := g.CreateOrder(context.Background(), CreateOrderRequest{Amount: 100, Currency: "INR"})
		require.ErrorIs(t, err, ErrGateway)
	}
	assert.Equal(t, int32(8), calls.Load())
}

func TestDisabledGateway(t *testing.T) {
	_, err := Disabled{}.CreateOrder(context.Background(), CreateOrderRequest{})
	assert.ErrorIs(t, err, ErrGateway)
}
