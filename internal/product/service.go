package product

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/novamart/shopbus/events"
	"github.com/novamart/shopbus/rabbitmq"
)

// Service creates products locally and publishes ProductAddSucceeded or
// ProductAddFailed afterwards.
type Service struct {
	store     Store
	publisher rabbitmq.Publisher
	logger    *zap.Logger
}

// NewService creates the product service.
func NewService(store Store, publisher rabbitmq.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, publisher: publisher, logger: logger}
}

// Create persists the product and announces the outcome. When the local
// create fails a ProductAddFailed event carries the reason downstream; when
// the succeeded event cannot be enqueued the error surfaces so the caller
// knows the catalog will not hear about this product.
func (s *Service) Create(ctx context.Context, p Product) error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if p.Price < 0 {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}

	if err := s.store.Create(ctx, p); err != nil {
		failed := events.ProductAddFailed{
			Name:      p.Name,
			Reason:    err.Error(),
			Timestamp: time.Now().UTC(),
		}
		if pubErr := s.publisher.PublishJSON(ctx, events.ProductExchange, events.KeyProductAddFailed, failed); pubErr != nil {
			s.logger.Error("Failed to publish product-add failure event",
				zap.String("name", p.Name),
				zap.Error(pubErr),
			)
		}
		return err
	}

	succeeded := events.ProductAddSucceeded{
		Name:           p.Name,
		Price:          p.Price,
		Description:    p.Description,
		Variants:       p.Variants,
		Discounts:      p.Discounts,
		Images:         p.Images,
		Specifications: p.Specifications,
		Timestamp:      time.Now().UTC(),
	}
	if pubErr := s.publisher.PublishJSON(ctx, events.ProductExchange, events.KeyProductAddSucceeded, succeeded); pubErr != nil {
		s.logger.Error("Product created but event not enqueued",
			zap.String("name", p.Name),
			zap.Error(pubErr),
		)
		return fmt.Errorf("product %s created but event not enqueued: %w", p.Name, pubErr)
	}

	s.logger.Info("Product created", zap.String("name", p.Name))
	return nil
}
