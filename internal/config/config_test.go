package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE", "memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("JWT_TTL", "48h")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers())
	assert.Equal(t, 48*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "0.15", cfg.TaxRate)
	assert.False(t, cfg.PaymentsEnabled())
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nSTORE=memory\nHTTP_ADDR=:9999\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("STORE")
		os.Unsetenv("HTTP_ADDR")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Store: "sqlite", RazorpayKeyID: "key"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "unknown STORE")
	assert.Contains(t, err.Error(), "RAZORPAY_KEY_SECRET")

	ok := &Config{Store: StoreMemory, JWTSecret: "x", RazorpayKeyID: "k", RazorpayKeySecret: "s"}
	require.NoError(t, ok.Validate())
	assert.True(t, ok.PaymentsEnabled())
}

func TestPricing(t *testing.T) {
	cfg := &Config{FreeShippingOver: "250", TaxRate: "0.18"}
	p, err := cfg.Pricing()
	require.NoError(t, err)
	assert.Equal(t, "250", p.FreeShippingOver.String())
	assert.Equal(t, "10", p.ShippingFee.String())
	assert.Equal(t, "0.18", p.TaxRate.String())

	bad := &Config{Store: StoreMemory, JWTSecret: "x", ShippingFee: "-1"}
	err = bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHIPPING_FEE")
}
