package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/akylbek/safari-buddy/internal/config"
	"github.com/akylbek/safari-buddy/internal/database"
	"github.com/akylbek/safari-buddy/internal/ledger"
	"github.com/akylbek/safari-buddy/internal/telemetry"
)

type consumer interface {
	Run(ctx context.Context, h ledger.EventHandler) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	if err := telemetry.InitTelemetry("safari-ledger", cfg.JaegerEndpoint); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		telemetry.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	store := ledger.NewPostgresStore(db)
	recorder := ledger.NewRecorder(store, cfg.Ledger.PlatformFeePercent)

	var src consumer
	switch {
	case len(cfg.GetKafkaBrokers()) > 0:
		src = ledger.NewKafkaConsumer(cfg.GetKafkaBrokers(), cfg.KafkaTopic, cfg.Ledger.ConsumerGroup)
	case cfg.NatsURL != "":
		nc, err := ledger.NewNatsConsumer(cfg.NatsURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		src = nc
	default:
		telemetry.Logger.Fatal("Ledger needs KAFKA_BROKERS or NATS_URL")
	}

	go func() {
		if err := src.Run(ctx, recorder); err != nil {
			telemetry.Logger.Error("Consumer stopped", zap.Error(err))
			stop()
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Ledger.Port,
		Handler:           ledger.NewRouter(store),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		telemetry.Logger.Info("Ledger starting",
			zap.String("port", cfg.Ledger.Port),
			zap.String("platform_fee_percent", cfg.Ledger.PlatformFeePercent.String()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()

	telemetry.Logger.Info("Shutting down ledger...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}
	telemetry.Logger.Info("Ledger exited")
}
