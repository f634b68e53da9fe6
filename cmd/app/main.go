package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/spacebooking/api"
	"github.com/Domenick1991/spacebooking/config"
	"github.com/Domenick1991/spacebooking/internal/bootstrap"
	"github.com/Domenick1991/spacebooking/internal/cache"
	"github.com/Domenick1991/spacebooking/internal/gateway"
	"github.com/Domenick1991/spacebooking/internal/kafka"
	"github.com/Domenick1991/spacebooking/internal/logger"
	"github.com/Domenick1991/spacebooking/internal/migrator"
	"github.com/Domenick1991/spacebooking/internal/pricing"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/Domenick1991/spacebooking/internal/service/booking"
	"github.com/Domenick1991/spacebooking/internal/service/catalog"
	"github.com/Domenick1991/spacebooking/internal/service/eligibility"
	"github.com/Domenick1991/spacebooking/internal/service/passengers"
	"github.com/Domenick1991/spacebooking/internal/service/payments"
	"github.com/Domenick1991/spacebooking/internal/service/trips"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		m, err := migrator.New(pool, zl)
		if err != nil {
			zl.Fatal("init migrator", zap.Error(err))
		}
		if err := m.Run(ctx); err != nil {
			zl.Fatal("migrate", zap.Error(err))
		}
		_ = m.Close()
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.PackagesCacheTTLSecs)*time.Second)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		zl.Warn("redis unavailable, package cache misses and webhook rate limit counts in memory", zap.Error(err))
	}

	// Without brokers events are dropped and webhooks reconcile inline.
	var (
		publisher kafka.Publisher
		emitter   *kafka.Emitter
	)
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, zl)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			zl.Warn("kafka unavailable, events will fail to publish and webhooks fall back to inline reconcile", zap.Error(err))
		}
		publisher = producer
		emitter = kafka.NewEmitter(producer, cfg.Kafka.BookingTopic, zl,
			kafka.WithNotificationsTopic(cfg.Kafka.NotificationsTopic))
	}

	gw := gateway.New(
		gateway.NewRazorpayAPI(cfg.Payments.KeyID, cfg.Payments.KeySecret),
		gateway.Config{
			CheckoutURL:   cfg.Payments.CheckoutURL,
			WebhookSecret: cfg.Payments.WebhookSecret,
			MaxFailures:   cfg.Payments.BreakerMaxFails,
			OpenTimeout:   time.Duration(cfg.Payments.BreakerTimeoutSec) * time.Second,
		},
		zl,
	)

	tx := repository.NewTxManager(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	eligibilityRepo := repository.NewEligibilityRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	tripRepo := repository.NewTripRepository(pool)
	passengerRepo := repository.NewPassengerRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	engine := pricing.NewEngine(catalogRepo,
		pricing.WithDestination(cfg.Booking.TaxDestination),
		pricing.WithDefaultPercentage(decimal.NewFromFloat(cfg.Booking.DefaultTaxPercent)),
	)

	eligibilityService := eligibility.NewEligibilityService(customerRepo, eligibilityRepo, tx, zl)
	catalogService := catalog.NewCatalogService(catalogRepo, engine, redisCache, zl)
	bookingService := booking.NewBookingService(bookingRepo, customerRepo, catalogRepo, paymentRepo, tripRepo, engine, tx, zl,
		booking.WithEvents(emitter))
	tripService := trips.NewTripService(tripRepo, bookingRepo, customerRepo, catalogRepo, tx, zl,
		trips.WithEvents(emitter))
	passengerService := passengers.NewPassengerService(passengerRepo, tripRepo, customerRepo, tx, zl)
	paymentService := payments.NewPaymentService(paymentRepo, bookingRepo, catalogRepo, gw, tx, zl,
		payments.WithEvents(emitter),
		payments.WithNotificationLog(redisCache, time.Duration(cfg.Payments.DedupeTTLSecs)*time.Second),
		payments.WithDefaultCurrency(cfg.Payments.DefaultCurrency),
	)

	operator := api.OperatorAuth(cfg.Auth.JWTSecret)
	if operator == nil {
		zl.Warn("auth.jwt_secret is empty, operator routes are open")
	}
	webhookLimit, err := api.RateLimit(redisCache.Client(), cfg.RateLimit.Webhook, "webhook", zl)
	if err != nil {
		zl.Fatal("init webhook rate limit", zap.Error(err))
	}

	router := api.NewRouter(api.Handlers{
		Customers:  api.NewCustomerHandler(eligibilityService, operator),
		Catalog:    api.NewCatalogHandler(catalogService, operator),
		Bookings:   api.NewBookingHandler(bookingService),
		Trips:      api.NewTripHandler(tripService, operator),
		Passengers: api.NewPassengerHandler(passengerService, operator),
		Payments:   api.NewPaymentHandler(paymentService, operator),
		Webhook:    api.NewWebhookHandler(gw, paymentService, publisher, cfg.Kafka.PaymentsTopic, zl),
	}, zl, webhookLimit)

	if err := bootstrap.Run(ctx, cfg, zl, bootstrap.Deps{
		Router:   router,
		Bookings: bookingService,
		Trips:    tripService,
	}); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}
