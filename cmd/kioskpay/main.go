/**
 * @description
 * Entry point for the KioskPay service. It loads configuration, connects to
 * Postgres, RabbitMQ and (optionally) Redis, starts the HTTP API, the refill
 * sweep scheduler and the kiosk telemetry consumer, and shuts them down on
 * SIGINT/SIGTERM.
 */
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/kioskpay/kioskpay/internal/api"
	"github.com/kioskpay/kioskpay/internal/app"
	"github.com/kioskpay/kioskpay/internal/config"
	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/kioskpay/kioskpay/internal/store"
	"github.com/kioskpay/kioskpay/pkg/rabbitmq"
	"github.com/kioskpay/kioskpay/pkg/razorpay"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=bootstrap msg=\"no .env file found, using environment variables\"")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"cannot load config\" err=%v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database unavailable\" err=%v", err)
	}
	defer pool.Close()
	if err := store.Migrate(ctx, pool); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"schema migration failed\" err=%v", err)
	}
	log.Println("level=info component=bootstrap msg=\"database connection established\"")
	repo := store.NewPostgresRepository(pool)

	var publisher app.EventPublisher
	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq unavailable; events will be dropped\" url=%s err=%v", rabbitmq.MaskURL(cfg.RabbitMQURL), err)
		publisher = &rabbitmq.EventProducerFallback{}
	} else {
		defer producer.Close()
		publisher = producer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	var limiter app.RateLimiter
	if cfg.LoginRateLimit > 0 {
		if redisClient := connectRedis(cfg.RedisURL); redisClient != nil {
			defer redisClient.Close()
			limiter = app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
		}
	}

	gateway := razorpay.NewClient(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)

	service := app.NewService(repo, gateway, publisher, limiter, logger, app.Options{
		Splitter: domain.NewSplitter(cfg.PlatformFeePercent),
		RefillPolicy: domain.RefillPolicy{
			PaymentLimit:       cfg.RefillPaymentLimit,
			LowLiquidThreshold: cfg.LowLiquidThreshold,
		},
		EventExchange:     cfg.EventExchange,
		AllowLegacyDigest: cfg.AuthAllowLegacyDigest,
		LoginRateLimit:    cfg.LoginRateLimit,
		LoginRateWindow:   cfg.LoginRateWindow,
		PublicBaseURL:     cfg.PublicBaseURL,
	})

	sessions := api.NewSessions(cfg.SessionJWTSecret, cfg.SessionTTL)
	router := api.NewRouter(api.NewHandler(service, sessions), sessions, cfg.AllowedOrigins())

	scheduler := app.NewScheduler(app.NewJobs(service, logger), logger, cfg.RefillSweepSchedule)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"scheduler failed to start\" err=%v", err)
	}
	logger.Info("scheduler started", "refill_sweep", cfg.RefillSweepSchedule)

	consumer := startTelemetryConsumer(cfg, service)
	if consumer != nil {
		defer consumer.Close()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("level=info component=bootstrap msg=\"kioskpay listening\" port=%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("level=fatal component=bootstrap msg=\"http server failed\" err=%v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("level=info component=bootstrap msg=\"shutting down\"")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("level=error component=bootstrap msg=\"forced shutdown\" err=%v", err)
	}

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop before the shutdown deadline")
	}
	log.Println("level=info component=bootstrap msg=\"kioskpay stopped\"")
}

// connectRedis returns nil when Redis is not configured or unreachable, which
// disables login rate limiting.
func connectRedis(redisURL string) *redis.Client {
	if strings.TrimSpace(redisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; login rate limiting disabled\" env=REDIS_URL")
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; login rate limiting disabled\" err=%v", err)
		return nil
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"redis ping failed; login rate limiting disabled\" err=%v", err)
		client.Close()
		return nil
	}
	log.Println("level=info component=bootstrap msg=\"redis connected\"")
	return client
}

func startTelemetryConsumer(cfg config.Config, service *app.Service) *rabbitmq.Consumer {
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"telemetry consumer unavailable\" err=%v", err)
		return nil
	}
	err = consumer.ConsumeWithBindings(cfg.EventExchange, cfg.TelemetryQueue, map[string]rabbitmq.Handler{
		app.TelemetryRoutingKey: service.HandleLiquidReading,
	})
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"telemetry bindings failed\" err=%v", err)
		consumer.Close()
		return nil
	}
	log.Printf("level=info component=bootstrap msg=\"telemetry consumer started\" queue=%s", cfg.TelemetryQueue)
	return consumer
}
