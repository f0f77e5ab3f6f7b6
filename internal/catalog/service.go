package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/novamart/shopbus/events"
)

// Service projects product events into catalog records and index documents.
//
// The product name is the only correlation key the upstream event carries,
// so it is also the idempotency key here: a unique index on the name plus a
// lookup-before-insert keep replays from creating duplicate catalog
// entries. This is a weaker key than the payment transaction id — two
// genuinely different products with the same name collapse into one record
// until the upstream event carries a stable id.
type Service struct {
	repo    Repository
	indexer Indexer
	logger  *zap.Logger
}

// NewService creates the catalog sync service.
func NewService(repo Repository, indexer Indexer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, indexer: indexer, logger: logger}
}

// CreateFromEvent persists a catalog record for the event and writes its
// index document. Replays of an already-projected event re-run only the
// index write, which heals a delivery that persisted the record but failed
// to index it. Errors propagate so the consumer dead-letters the message.
func (s *Service) CreateFromEvent(ctx context.Context, event events.ProductAddSucceeded) (*Record, error) {
	existing, err := s.repo.FindByName(ctx, event.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("Duplicate product event, record already exists",
			zap.String("name", event.Name),
			zap.String("product_code", existing.ProductCode),
		)
		if err := s.indexer.IndexProduct(ctx, *existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	rec := &Record{
		ProductCode:    newProductCode(),
		Name:           event.Name,
		Price:          event.Price,
		Description:    event.Description,
		Variants:       event.Variants,
		Discounts:      event.Discounts,
		Images:         event.Images,
		Specifications: event.Specifications,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			s.logger.Info("Concurrent duplicate product event, using existing record",
				zap.String("name", event.Name),
			)
			return s.repo.FindByName(ctx, event.Name)
		}
		return nil, fmt.Errorf("create catalog record for %s: %w", event.Name, err)
	}

	if err := s.indexer.IndexProduct(ctx, *rec); err != nil {
		return nil, err
	}

	s.logger.Info("Catalog record created",
		zap.String("name", rec.Name),
		zap.String("product_code", rec.ProductCode),
	)
	return rec, nil
}

// RecordAddFailure notes an upstream product-add failure and reports an
// error so the event lands on the dead-letter queue instead of silently
// succeeding.
func (s *Service) RecordAddFailure(ctx context.Context, event events.ProductAddFailed) error {
	s.logger.Error("Product add failed upstream",
		zap.String("name", event.Name),
		zap.String("reason", event.Reason),
	)
	return fmt.Errorf("catalog: product add failed upstream for %s: %s", event.Name, event.Reason)
}

// newProductCode generates the catalog-side product code.
func newProductCode() string {
	return "P-" + strings.ToUpper(uuid.New().String())
}
