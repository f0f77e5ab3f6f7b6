package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/novamart/shopbus/events"
	"github.com/novamart/shopbus/rabbitmq"
)

// ProductAddSucceededHandler adapts the catalog projection into a consumer
// handler for the product-add-succeeded queue.
func ProductAddSucceededHandler(svc *Service, logger *zap.Logger) rabbitmq.HandlerFunc {
	return rabbitmq.JSONHandler(logger, func(ctx context.Context, event events.ProductAddSucceeded) error {
		_, err := svc.CreateFromEvent(ctx, event)
		return err
	})
}

// ProductAddFailedHandler adapts the failure recording for the
// product-add-failed queue.
func ProductAddFailedHandler(svc *Service, logger *zap.Logger) rabbitmq.HandlerFunc {
	return rabbitmq.JSONHandler(logger, func(ctx context.Context, event events.ProductAddFailed) error {
		return svc.RecordAddFailure(ctx, event)
	})
}
