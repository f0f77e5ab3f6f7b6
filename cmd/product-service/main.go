package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/novamart/shopbus/events"
	"github.com/novamart/shopbus/internal/config"
	"github.com/novamart/shopbus/internal/product"
	"github.com/novamart/shopbus/rabbitmq"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	manager := rabbitmq.NewManager(cfg.Broker, rabbitmq.WithManagerLogger(logger))
	defer manager.Close()
	if !manager.TryConnect() {
		logger.Fatal("Failed to connect to RabbitMQ")
	}
	if err := manager.DeclareTopology(events.ProductPublisherTopology()); err != nil {
		logger.Fatal("Failed to declare topology", zap.Error(err))
	}

	publisher := rabbitmq.NewConfirmedPublisher(manager,
		rabbitmq.WithPublisherLogger(logger),
		rabbitmq.WithPublisherMetrics(rabbitmq.NewOpenTelemetryMetricsCollector()),
		rabbitmq.WithConfirmTimeout(cfg.ConfirmTimeout),
	)
	defer publisher.Close()

	svc := product.NewService(product.NewSQLStore(db), publisher, logger)

	api := product.NewAPI(svc, logger)
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Product HTTP API listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}
	logger.Info("Product service stopped")
}
