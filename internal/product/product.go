// Package product creates products locally and announces the outcome as
// events for the catalog sync service.
package product

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Product is the local product record. Structured fields are stored as JSON
// columns.
type Product struct {
	Name           string
	Price          float64
	Description    string
	Variants       []string
	Discounts      float64
	Images         []string
	Specifications map[string]string
}

// ValidationError reports a product that was rejected before the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid product: %s %s", e.Field, e.Reason)
}

// Store persists products locally before the add event is published.
type Store interface {
	Create(ctx context.Context, p Product) error
}

const insertProductQuery = `
	INSERT INTO products (name, price, description, variants, discounts, images, specifications)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// SQLStore stores products in MySQL.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a store on the given database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Create inserts the product.
func (s *SQLStore) Create(ctx context.Context, p Product) error {
	variants, err := json.Marshal(p.Variants)
	if err != nil {
		return fmt.Errorf("marshal variants: %w", err)
	}
	images, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	specifications, err := json.Marshal(p.Specifications)
	if err != nil {
		return fmt.Errorf("marshal specifications: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, insertProductQuery,
		p.Name,
		p.Price,
		p.Description,
		variants,
		p.Discounts,
		images,
		specifications,
	); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}
