// Package catalog is the sync-service side of the product saga: it projects
// ProductAddSucceeded events into catalog records and search-index
// documents.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateRecord is returned when an insert hits the unique index on
// the product name.
var ErrDuplicateRecord = errors.New("catalog: record already exists for product name")

// Record is the catalog projection of a product event.
type Record struct {
	ProductCode    string
	Name           string
	Price          float64
	Description    string
	Variants       []string
	Discounts      float64
	Images         []string
	Specifications map[string]string
}

// Repository is the persistence surface of the sync handlers. The product
// name serves as the idempotency key; see the package documentation for why
// that is the best key the upstream event offers.
type Repository interface {
	FindByName(ctx context.Context, name string) (*Record, error)
	Create(ctx context.Context, rec *Record) error
}

const (
	findByNameQuery = `
		SELECT product_code, name, price, description, variants, discounts, images, specifications
		FROM catalog_products
		WHERE name = ?`

	insertRecordQuery = `
		INSERT INTO catalog_products (product_code, name, price, description, variants, discounts, images, specifications)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

// SQLRepository stores catalog records in MySQL with a unique index on the
// product name.
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository creates a repository on the given database handle.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// FindByName returns the record for a product name, or nil when none
// exists.
func (r *SQLRepository) FindByName(ctx context.Context, name string) (*Record, error) {
	var (
		rec            Record
		variants       []byte
		images         []byte
		specifications []byte
	)
	err := r.db.QueryRowContext(ctx, findByNameQuery, name).Scan(
		&rec.ProductCode,
		&rec.Name,
		&rec.Price,
		&rec.Description,
		&variants,
		&rec.Discounts,
		&images,
		&specifications,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find catalog record by name: %w", err)
	}

	if err := json.Unmarshal(variants, &rec.Variants); err != nil {
		return nil, fmt.Errorf("decode variants: %w", err)
	}
	if err := json.Unmarshal(images, &rec.Images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	if err := json.Unmarshal(specifications, &rec.Specifications); err != nil {
		return nil, fmt.Errorf("decode specifications: %w", err)
	}
	return &rec, nil
}

// Create inserts the record.
func (r *SQLRepository) Create(ctx context.Context, rec *Record) error {
	variants, err := json.Marshal(rec.Variants)
	if err != nil {
		return fmt.Errorf("marshal variants: %w", err)
	}
	images, err := json.Marshal(rec.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	specifications, err := json.Marshal(rec.Specifications)
	if err != nil {
		return fmt.Errorf("marshal specifications: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, insertRecordQuery,
		rec.ProductCode,
		rec.Name,
		rec.Price,
		rec.Description,
		variants,
		rec.Discounts,
		images,
		specifications,
	); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 { // duplicate entry
			return ErrDuplicateRecord
		}
		return fmt.Errorf("insert catalog record: %w", err)
	}
	return nil
}
