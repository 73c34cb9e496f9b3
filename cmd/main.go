package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/akylbek/safari-buddy/internal/api"
	"github.com/akylbek/safari-buddy/internal/auth"
	"github.com/akylbek/safari-buddy/internal/cache"
	"github.com/akylbek/safari-buddy/internal/config"
	"github.com/akylbek/safari-buddy/internal/database"
	"github.com/akylbek/safari-buddy/internal/events"
	"github.com/akylbek/safari-buddy/internal/interfaces"
	"github.com/akylbek/safari-buddy/internal/mpesa"
	"github.com/akylbek/safari-buddy/internal/repository"
	"github.com/akylbek/safari-buddy/internal/service"
	"github.com/akylbek/safari-buddy/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize telemetry
	if err := telemetry.InitTelemetry("safari-buddy", cfg.JaegerEndpoint); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Safari Buddy API",
		zap.String("mpesa_environment", cfg.Mpesa.Environment),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStart()

	// Connect to PostgreSQL
	db, err := database.Open(startCtx, cfg.DatabaseURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		telemetry.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	store := newIdempotencyStore(startCtx, cfg)
	publisher := newPublisher(cfg)
	defer publisher.Close()

	gateway := mpesa.NewClient(mpesa.Config{
		ConsumerKey:    cfg.Mpesa.ConsumerKey,
		ConsumerSecret: cfg.Mpesa.ConsumerSecret,
		Shortcode:      cfg.Mpesa.Shortcode,
		Passkey:        cfg.Mpesa.Passkey,
		BaseURL:        cfg.Mpesa.BaseURL,
		Timeout:        cfg.Mpesa.Timeout,
	})

	paymentRepo := repository.NewPaymentRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	tourRepo := repository.NewTourRepository(db)
	userRepo := repository.NewUserRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)

	router := api.NewRouter(api.Services{
		Auth:     service.NewAuthService(userRepo, tokens),
		Tours:    service.NewTourService(tourRepo),
		Bookings: service.NewBookingService(bookingRepo, publisher),
		Payments: service.NewPaymentService(paymentRepo, bookingRepo, gateway, publisher, store,
			service.PaymentServiceConfig{
				CallbackURL:    cfg.Mpesa.CallbackURL,
				IdempotencyTTL: cfg.IdempotencyTTL,
			}),
		Reviews: service.NewReviewService(reviewRepo, bookingRepo, tourRepo),
	}, tokens, store)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		telemetry.Logger.Info("HTTP server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}

// newIdempotencyStore prefers Redis and falls back to process memory, which
// only deduplicates within a single instance.
func newIdempotencyStore(ctx context.Context, cfg *config.Config) interfaces.IdempotencyStore {
	if cfg.RedisURL == "" {
		telemetry.Logger.Warn("REDIS_URL not set, using in-memory idempotency store")
		return cache.NewMemoryStore()
	}
	store, err := cache.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	return store
}

func newPublisher(cfg *config.Config) events.Publisher {
	var pubs events.Multi
	if brokers := cfg.GetKafkaBrokers(); len(brokers) > 0 {
		pubs = append(pubs, events.NewKafkaPublisher(brokers, cfg.KafkaTopic))
		telemetry.Logger.Info("Publishing events to Kafka", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	}
	if cfg.NatsURL != "" {
		nc, err := events.NewNatsPublisher(cfg.NatsURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		pubs = append(pubs, nc)
		telemetry.Logger.Info("Publishing events to NATS", zap.String("url", cfg.NatsURL))
	}
	if len(pubs) == 0 {
		telemetry.Logger.Warn("No event broker configured, events are dropped")
		return events.Nop{}
	}
	return pubs
}
