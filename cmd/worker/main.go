package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Domenick1991/spacebooking/config"
	"github.com/Domenick1991/spacebooking/internal/cache"
	"github.com/Domenick1991/spacebooking/internal/email"
	"github.com/Domenick1991/spacebooking/internal/gateway"
	"github.com/Domenick1991/spacebooking/internal/kafka"
	"github.com/Domenick1991/spacebooking/internal/logger"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/Domenick1991/spacebooking/internal/service/eligibility"
	"github.com/Domenick1991/spacebooking/internal/service/payments"
	"github.com/Domenick1991/spacebooking/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
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

	if !cfg.Kafka.Enabled() {
		zl.Fatal("worker needs kafka.brokers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.PackagesCacheTTLSecs)*time.Second)
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, zl)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		zl.Fatal("kafka unavailable", zap.Error(err))
	}
	emitter := kafka.NewEmitter(producer, cfg.Kafka.BookingTopic, zl,
		kafka.WithNotificationsTopic(cfg.Kafka.NotificationsTopic))

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
	paymentService := payments.NewPaymentService(
		repository.NewPaymentRepository(pool),
		repository.NewBookingRepository(pool),
		repository.NewCatalogRepository(pool),
		gw, tx, zl,
		payments.WithEvents(emitter),
		payments.WithNotificationLog(redisCache, time.Duration(cfg.Payments.DedupeTTLSecs)*time.Second),
		payments.WithDefaultCurrency(cfg.Payments.DefaultCurrency),
	)
	customers := eligibility.NewEligibilityService(
		repository.NewCustomerRepository(pool),
		repository.NewEligibilityRepository(pool),
		tx, zl,
	)
	sender := email.NewSender(cfg.Email, zl)

	consumers := map[string]worker.Handler{
		cfg.Kafka.PaymentsTopic:      worker.Payments(paymentService, zl),
		cfg.Kafka.NotificationsTopic: worker.Notifications(customers, sender, zl),
	}

	var wg sync.WaitGroup
	for topic, handle := range consumers {
		if topic == "" {
			continue
		}
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic, zl)
		defer consumer.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			zl.Info("consuming", zap.String("topic", topic))
			if err := consumer.Consume(ctx, handle); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("consumer stopped", zap.String("topic", topic), zap.Error(err))
				stop()
			}
		}()
	}

	<-ctx.Done()
	zl.Info("shutting down worker")
	wg.Wait()
}
