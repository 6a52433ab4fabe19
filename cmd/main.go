package main

//go:generate swag init -g cmd/main.go -o docs --parseInternal

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/events"
	httpapi "storefront/internal/http"
	"storefront/internal/logger"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/service"

	_ "storefront/docs"
)

// repos набор репозиториев выбранного хранилища
type repos struct {
	products repository.ProductRepository
	carts    repository.CartRepository
	orders   repository.OrderRepository
	users    repository.UserRepository
	close    func(context.Context) error
}

// @title Storefront API
// @version 1.0
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("open store")
	}

	cartCache, redisClient := openCache(ctx, cfg, log)
	publisher := openPublisher(cfg, log)

	var gateway payment.Gateway = payment.Disabled{}
	if cfg.PaymentsEnabled() {
		gateway = payment.NewRazorpayGateway(payment.RazorpayConfig{
			BaseURL:   cfg.RazorpayURL,
			KeyID:     cfg.RazorpayKeyID,
			KeySecret: cfg.RazorpayKeySecret,
			Timeout:   cfg.RazorpayTimeout,
		})
	} else {
		log.Warn().Msg("razorpay keys not set, online payments disabled")
	}
	pricing, _ := cfg.Pricing() // проверено в config.Validate

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	carts := service.NewCartService(store.carts, store.products, cartCache, log)
	srv := httpapi.NewServer(httpapi.Deps{
		Products: service.NewProductService(store.products),
		Carts:    carts,
		Orders: service.NewOrderService(service.OrderDeps{
			Products:  store.products,
			Orders:    store.orders,
			Carts:     carts,
			Gateway:   gateway,
			Signer:    payment.NewSigner(cfg.RazorpayKeySecret),
			Publisher: publisher,
			Pricing:   &pricing,
			Currency:  cfg.Currency,
			Log:       log,
		}),
		Users:          service.NewUserService(store.users, store.products, tokens, log),
		Admin:          service.NewAdminService(store.users, store.products, store.orders),
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("env", cfg.Env).Str("store", cfg.Store).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("close publisher")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("close redis")
		}
	}
	if err := store.close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("close store")
	}
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*repos, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn().Msg("using in-memory store, data is lost on restart")
		mem := repository.NewMemoryStore()
		return &repos{
			products: mem,
			carts:    repository.NewMemoryCarts(mem),
			orders:   repository.NewMemoryOrders(mem),
			users:    repository.NewMemoryUsers(mem),
			close:    func(context.Context) error { return nil },
		}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	db, err := repository.ConnectMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	if err := repository.EnsureIndexes(connectCtx, db); err != nil {
		_ = db.Client().Disconnect(context.Background())
		return nil, err
	}
	log.Info().Str("database", cfg.MongoDB).Msg("connected to MongoDB")
	return &repos{
		products: repository.NewMongoProducts(db),
		carts:    repository.NewMongoCarts(db),
		orders:   repository.NewMongoOrders(db),
		users:    repository.NewMongoUsers(db),
		close:    func(ctx context.Context) error { return db.Client().Disconnect(ctx) },
	}, nil
}

// openCache без REDIS_ADDR или при недоступном Redis корзина читается напрямую из хранилища
func openCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (cache.CartCache, *redis.Client) {
	if cfg.RedisAddr == "" {
		return cache.NopCache{}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, cart cache disabled")
		_ = client.Close()
		return cache.NopCache{}, nil
	}
	return cache.NewRedisCache(client, cfg.CartCacheTTL), client
}

func openPublisher(cfg *config.Config, log zerolog.Logger) events.Publisher {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return events.NopPublisher{}
	}
	p, err := events.NewKafkaPublisher(events.KafkaConfig{Brokers: brokers, Topic: cfg.KafkaTopic}, log)
	if err != nil {
		log.Warn().Err(err).Msg("kafka publisher disabled")
		return events.NopPublisher{}
	}
	return p
}
