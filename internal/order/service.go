package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/novamart/shopbus/events"
)

// Service owns the order-side saga steps.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates the order saga service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// ProcessPaymentSucceeded creates the order for a successful payment,
// exactly once. Redelivery of the same event is detected by the lookup on
// the transaction id and returns the existing order unchanged. A
// persistence failure propagates so the consumer dead-letters the message
// instead of dropping it.
func (s *Service) ProcessPaymentSucceeded(ctx context.Context, event events.PaymentSucceeded) (*Order, error) {
	existing, err := s.repo.FindByTransactionID(ctx, event.TransactionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("Duplicate payment event, order already exists",
			zap.String("transaction_id", event.TransactionID),
			zap.String("order_number", existing.OrderNumber),
		)
		return existing, nil
	}

	newOrder := &Order{
		OrderNumber:   newOrderNumber(),
		OrderDate:     time.Now().UTC(),
		TransactionID: event.TransactionID,
		Status:        StatusProcessing,
	}

	if err := s.repo.Create(ctx, newOrder); err != nil {
		// A concurrent delivery of the same event may have inserted first;
		// the unique index resolves the race in its favor.
		if errors.Is(err, ErrDuplicateOrder) {
			s.logger.Info("Concurrent duplicate payment event, using existing order",
				zap.String("transaction_id", event.TransactionID),
			)
			return s.repo.FindByTransactionID(ctx, event.TransactionID)
		}
		return nil, fmt.Errorf("create order for transaction %s: %w", event.TransactionID, err)
	}

	s.logger.Info("Order created from payment event",
		zap.String("transaction_id", event.TransactionID),
		zap.String("order_number", newOrder.OrderNumber),
		zap.Int64("amount", event.Amount),
		zap.String("currency", event.Currency),
	)
	return newOrder, nil
}

// RecordPaymentFailure writes the failure to the audit log. No order was
// created for a failed payment, so there is nothing to compensate; the log
// entry is the whole action.
func (s *Service) RecordPaymentFailure(ctx context.Context, event events.PaymentFailed) error {
	s.logger.Warn("Payment failed",
		zap.String("transaction_id", event.TransactionID),
		zap.String("attempt_reference", event.AttemptReference),
		zap.String("reason", event.Reason),
		zap.Time("failed_at", event.Timestamp),
	)
	return nil
}

// newOrderNumber generates a human-readable order number.
func newOrderNumber() string {
	return strings.ToUpper(uuid.New().String())
}
