package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/novamart/shopbus/events"
	"github.com/novamart/shopbus/rabbitmq"
)

// Service runs the charge flow: validate, call the gateway, publish the
// outcome. Publishing success only means the event was durably enqueued at
// the broker, never that downstream processing happened.
type Service struct {
	gateway   Gateway
	publisher rabbitmq.Publisher
	logger    *zap.Logger
}

// NewService creates the payment service.
func NewService(gateway Gateway, publisher rabbitmq.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gateway: gateway, publisher: publisher, logger: logger}
}

// Create validates and charges the request. On gateway success it publishes
// PaymentSucceeded; if that publish fails the charge result is still
// returned together with the error, so the caller can surface the broken
// state instead of silently losing the payment. On gateway failure it
// publishes a RetryEnvelope with RetryCount 0 and returns the gateway
// error.
func (s *Service) Create(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := validate(req); err != nil {
		s.logger.Warn("Rejected payment request", zap.Error(err))
		return nil, err
	}

	result, err := s.gateway.Charge(ctx, req)
	if err != nil {
		s.publishFailure(ctx, req, err)
		return nil, err
	}

	event := events.PaymentSucceeded{
		TransactionID: result.TransactionID,
		Amount:        result.Amount,
		Currency:      result.Currency,
		Timestamp:     time.Now().UTC(),
	}
	if pubErr := s.publisher.PublishJSON(ctx, events.PaymentExchange, events.KeyPaymentSucceeded, event); pubErr != nil {
		s.logger.Error("Charge accepted but event not enqueued",
			zap.String("transaction_id", result.TransactionID),
			zap.Error(pubErr),
		)
		return result, fmt.Errorf("payment %s charged but event not enqueued: %w", result.TransactionID, pubErr)
	}

	s.logger.Info("Payment succeeded",
		zap.String("transaction_id", result.TransactionID),
		zap.Int64("amount", result.Amount),
		zap.String("currency", result.Currency),
	)
	return result, nil
}

// publishFailure emits the failed-payment envelope that feeds both the
// order service's audit consumer and the payment retry flow. A publish
// failure here is logged only; the charge error is what the caller needs.
func (s *Service) publishFailure(ctx context.Context, req ChargeRequest, chargeErr error) {
	envelope := events.RetryEnvelope{
		PaymentFailed: events.PaymentFailed{
			AttemptReference: req.Token,
			Reason:           chargeErr.Error(),
			Timestamp:        time.Now().UTC(),
		},
	}
	var gwErr *GatewayError
	if errors.As(chargeErr, &gwErr) {
		envelope.TransactionID = gwErr.TransactionID
		envelope.Reason = gwErr.Reason
	}

	if pubErr := s.publisher.PublishJSON(ctx, events.PaymentExchange, events.KeyPaymentFailed, envelope); pubErr != nil {
		s.logger.Error("Failed to publish payment failure event",
			zap.String("attempt_reference", envelope.AttemptReference),
			zap.Error(pubErr),
		)
		return
	}

	s.logger.Warn("Payment failed",
		zap.String("attempt_reference", envelope.AttemptReference),
		zap.String("reason", envelope.Reason),
	)
}

func validate(req ChargeRequest) error {
	if req.Amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if req.Currency == "" {
		return &ValidationError{Field: "currency", Reason: "is required"}
	}
	if req.Token == "" {
		return &ValidationError{Field: "token", Reason: "is required"}
	}
	return nil
}
