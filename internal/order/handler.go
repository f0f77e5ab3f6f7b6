package order

import (
	"context"

	"go.uber.org/zap"

	"github.com/novamart/shopbus/events"
	"github.com/novamart/shopbus/rabbitmq"
)

// PaymentSucceededHandler adapts the order saga into a consumer handler for
// the payment-succeeded queue. Malformed payloads and persistence failures
// end up on the order service's dead-letter queue.
func PaymentSucceededHandler(svc *Service, logger *zap.Logger) rabbitmq.HandlerFunc {
	return rabbitmq.JSONHandler(logger, func(ctx context.Context, event events.PaymentSucceeded) error {
		_, err := svc.ProcessPaymentSucceeded(ctx, event)
		return err
	})
}

// PaymentFailedHandler adapts the audit-only compensating action for the
// payment-failed queue.
func PaymentFailedHandler(svc *Service, logger *zap.Logger) rabbitmq.HandlerFunc {
	return rabbitmq.JSONHandler(logger, func(ctx context.Context, event events.PaymentFailed) error {
		return svc.RecordPaymentFailure(ctx, event)
	})
}
