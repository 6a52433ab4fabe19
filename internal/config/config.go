package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"storefront/internal/domain"
)

// Config настройки процесса; читаются из окружения, .env подхватывается, если есть
type Config struct {
	HTTPAddr        string        `mapstructure:"HTTP_ADDR"`
	Env             string        `mapstructure:"APP_ENV"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogFormat       string        `mapstructure:"LOG_FORMAT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	CORSOrigins     string        `mapstructure:"CORS_ORIGINS"`

	Store    string `mapstructure:"STORE"`
	MongoURI string `mapstructure:"MONGODB_URI"`
	MongoDB  string `mapstructure:"MONGODB_DATABASE"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CartCacheTTL  time.Duration `mapstructure:"CART_CACHE_TTL"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_ORDER_TOPIC"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	RazorpayKeyID     string        `mapstructure:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string        `mapstructure:"RAZORPAY_KEY_SECRET"`
	RazorpayURL       string        `mapstructure:"RAZORPAY_API_URL"`
	RazorpayTimeout   time.Duration `mapstructure:"RAZORPAY_TIMEOUT"`
	Currency          string        `mapstructure:"PAYMENT_CURRENCY"`

	FreeShippingOver string `mapstructure:"FREE_SHIPPING_OVER"`
	ShippingFee      string `mapstructure:"SHIPPING_FEE"`
	TaxRate          string `mapstructure:"TAX_RATE"`
}

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

var defaults = map[string]any{
	"HTTP_ADDR":           ":8080",
	"APP_ENV":             "development",
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "console",
	"SHUTDOWN_TIMEOUT":    5 * time.Second,
	"CORS_ORIGINS":        "*",
	"STORE":               StoreMongo,
	"MONGODB_URI":         "mongodb://localhost:27017",
	"MONGODB_DATABASE":    "storefront",
	"REDIS_ADDR":          "",
	"REDIS_PASSWORD":      "",
	"REDIS_DB":            0,
	"CART_CACHE_TTL":      15 * time.Minute,
	"KAFKA_BROKERS":       "",
	"KAFKA_ORDER_TOPIC":   "orders",
	"JWT_SECRET":          "",
	"JWT_TTL":             30 * 24 * time.Hour,
	"RAZORPAY_KEY_ID":     "",
	"RAZORPAY_KEY_SECRET": "",
	"RAZORPAY_API_URL":    "https://api.razorpay.com",
	"RAZORPAY_TIMEOUT":    10 * time.Second,
	"PAYMENT_CURRENCY":    "INR",
	"FREE_SHIPPING_OVER":  "100",
	"SHIPPING_FEE":        "10",
	"TAX_RATE":            "0.15",
}

// Load читает envFile (если он существует) в окружение, затем собирает Config через viper
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.Store {
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for mongo store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE %q", c.Store))
	}
	if (c.RazorpayKeyID == "") != (c.RazorpayKeySecret == "") {
		errs = append(errs, errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set together"))
	}
	if _, err := c.Pricing(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Pricing разбирает FREE_SHIPPING_OVER, SHIPPING_FEE и TAX_RATE; пустое значение берётся из domain.DefaultPricing
func (c *Config) Pricing() (domain.Pricing, error) {
	p := domain.DefaultPricing()
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"FREE_SHIPPING_OVER", c.FreeShippingOver, &p.FreeShippingOver},
		{"SHIPPING_FEE", c.ShippingFee, &p.ShippingFee},
		{"TAX_RATE", c.TaxRate, &p.TaxRate},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(f.raw))
		if err != nil || d.IsNegative() {
			return domain.Pricing{}, fmt.Errorf("%s must be a non-negative number, got %q", f.name, f.raw)
		}
		*f.dst = d
	}
	return p, nil
}

func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSOrigins)
}

func (c *Config) PaymentsEnabled() bool {
	return c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
