package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/novamart/shopbus/events"
	"github.com/novamart/shopbus/internal/catalog"
	"github.com/novamart/shopbus/internal/config"
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

	indexer := catalog.NewRedisIndexer(cfg.RedisAddr)
	defer indexer.Close()

	manager := rabbitmq.NewManager(cfg.Broker, rabbitmq.WithManagerLogger(logger))
	defer manager.Close()
	if !manager.TryConnect() {
		logger.Fatal("Failed to connect to RabbitMQ")
	}
	if err := manager.DeclareTopology(events.SyncTopology()); err != nil {
		logger.Fatal("Failed to declare topology", zap.Error(err))
	}

	metrics := rabbitmq.NewOpenTelemetryMetricsCollector()
	svc := catalog.NewService(catalog.NewSQLRepository(db), indexer, logger)

	succeededConsumer := rabbitmq.NewConsumer(manager, events.SyncProductSucceededQueue,
		catalog.ProductAddSucceededHandler(svc, logger),
		rabbitmq.WithConsumerLogger(logger),
		rabbitmq.WithConsumerMetrics(metrics),
		rabbitmq.WithConsumerTag("sync-product-add-succeeded"),
	)
	failedConsumer := rabbitmq.NewConsumer(manager, events.SyncProductFailedQueue,
		catalog.ProductAddFailedHandler(svc, logger),
		rabbitmq.WithConsumerLogger(logger),
		rabbitmq.WithConsumerMetrics(metrics),
		rabbitmq.WithConsumerTag("sync-product-add-failed"),
	)

	dispatcher := rabbitmq.NewDispatcher(logger, succeededConsumer, failedConsumer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go dispatcher.Start(ctx)
	logger.Info("Sync service started")

	<-ctx.Done()

	logger.Info("Shutdown signal received")
	dispatcher.Stop()
	logger.Info("Sync service stopped")
}
