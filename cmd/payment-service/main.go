package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/novamart/shopbus/events"
	"github.com/novamart/shopbus/internal/config"
	"github.com/novamart/shopbus/internal/payment"
	"github.com/novamart/shopbus/rabbitmq"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()

	manager := rabbitmq.NewManager(cfg.Broker, rabbitmq.WithManagerLogger(logger))
	defer manager.Close()
	if !manager.TryConnect() {
		logger.Fatal("Failed to connect to RabbitMQ")
	}
	if err := manager.DeclareTopology(events.PaymentRetryTopology()); err != nil {
		logger.Fatal("Failed to declare topology", zap.Error(err))
	}

	metrics := rabbitmq.NewOpenTelemetryMetricsCollector()
	publisher := rabbitmq.NewConfirmedPublisher(manager,
		rabbitmq.WithPublisherLogger(logger),
		rabbitmq.WithPublisherMetrics(metrics),
		rabbitmq.WithConfirmTimeout(cfg.ConfirmTimeout),
	)
	defer publisher.Close()

	gateway := payment.NewStripeGateway(cfg.StripeAPIKey, logger)
	svc := payment.NewService(gateway, publisher, logger)

	retry := payment.NewFailureRetryHandler(gateway, publisher, logger)
	retryConsumer := rabbitmq.NewConsumer(manager, events.PaymentRetryQueue,
		payment.RetryHandler(retry, logger),
		rabbitmq.WithConsumerLogger(logger),
		rabbitmq.WithConsumerMetrics(metrics),
		rabbitmq.WithConsumerTag("payment-failure-retry"),
	)

	dispatcher := rabbitmq.NewDispatcher(logger, retryConsumer)

	api := payment.NewAPI(svc, logger)
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go dispatcher.Start(ctx)
	go func() {
		logger.Info("Payment HTTP API listening", zap.String("addr", server.Addr))
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
	dispatcher.Stop()
	logger.Info("Payment service stopped")
}
