package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/novamart/shopbus/events"
	"github.com/novamart/shopbus/rabbitmq"
)

// Fixed retry policy for the failure-retry flow.
const (
	maxFailureRetries = 3
	failureRetryDelay = 5 * time.Second
)

// FailureRetryHandler consumes the payment service's own failure queue and
// re-attempts declined charges a bounded number of times.
//
// Outcomes per envelope:
//   - RetryCount at the maximum: acknowledge and leave the message for
//     manual handling, never retry forever.
//   - Retry succeeds: publish PaymentSucceeded and acknowledge.
//   - Gateway declines again: republish with RetryCount+1 and acknowledge.
//   - Broker or other infrastructure failure: nack with requeue so the
//     envelope is redelivered.
type FailureRetryHandler struct {
	gateway    Gateway
	publisher  rabbitmq.Publisher
	logger     *zap.Logger
	maxRetries int
	retryDelay time.Duration
}

// NewFailureRetryHandler creates the retry handler with the fixed policy.
func NewFailureRetryHandler(gateway Gateway, publisher rabbitmq.Publisher, logger *zap.Logger) *FailureRetryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FailureRetryHandler{
		gateway:    gateway,
		publisher:  publisher,
		logger:     logger,
		maxRetries: maxFailureRetries,
		retryDelay: failureRetryDelay,
	}
}

// Handle processes one retry envelope.
func (h *FailureRetryHandler) Handle(ctx context.Context, envelope events.RetryEnvelope) error {
	if envelope.RetryCount >= h.maxRetries {
		h.logger.Error("Max retries reached for failed payment, leaving for manual review",
			zap.String("attempt_reference", envelope.AttemptReference),
			zap.Int("retry_count", envelope.RetryCount),
		)
		return nil
	}

	h.logger.Info("Retrying failed payment",
		zap.String("attempt_reference", envelope.AttemptReference),
		zap.Int("retry_count", envelope.RetryCount),
	)

	timer := time.NewTimer(h.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		// Shutting down before the retry ran; redeliver the envelope.
		return rabbitmq.Requeue(ctx.Err())
	case <-timer.C:
	}

	// Prefer the gateway's own transaction id when the original attempt got
	// far enough to create one.
	reference := envelope.TransactionID
	if reference == "" {
		reference = envelope.AttemptReference
	}
	result, err := h.gateway.Retry(ctx, reference)
	if err != nil {
		var gwErr *GatewayError
		if !errors.As(err, &gwErr) {
			// Not a gateway verdict but an infrastructure failure; the
			// envelope must come back unchanged.
			return rabbitmq.Requeue(err)
		}
		return h.republish(ctx, envelope, gwErr)
	}

	succeeded := events.PaymentSucceeded{
		TransactionID: result.TransactionID,
		Amount:        result.Amount,
		Currency:      result.Currency,
		Timestamp:     time.Now().UTC(),
	}
	if pubErr := h.publisher.PublishJSON(ctx, events.PaymentExchange, events.KeyPaymentSucceeded, succeeded); pubErr != nil {
		return rabbitmq.Requeue(pubErr)
	}

	h.logger.Info("Payment retry succeeded",
		zap.String("attempt_reference", envelope.AttemptReference),
		zap.String("transaction_id", result.TransactionID),
	)
	return nil
}

// republish puts the envelope back on the failure queue with an incremented
// retry count.
func (h *FailureRetryHandler) republish(ctx context.Context, envelope events.RetryEnvelope, gwErr *GatewayError) error {
	next := envelope
	next.RetryCount++
	next.Reason = gwErr.Reason
	next.Timestamp = time.Now().UTC()

	if pubErr := h.publisher.PublishJSON(ctx, events.PaymentExchange, events.KeyPaymentFailed, next); pubErr != nil {
		// The incremented envelope is not on the broker; redeliver the
		// original rather than dropping the retry.
		return rabbitmq.Requeue(pubErr)
	}

	h.logger.Warn("Payment retry failed, republished with incremented count",
		zap.String("attempt_reference", envelope.AttemptReference),
		zap.Int("retry_count", next.RetryCount),
	)
	return nil
}

// RetryHandler adapts the failure-retry flow into a consumer handler.
func RetryHandler(h *FailureRetryHandler, logger *zap.Logger) rabbitmq.HandlerFunc {
	return rabbitmq.JSONHandler(logger, h.Handle)
}
