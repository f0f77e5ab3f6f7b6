package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateOrder is returned when an insert hits the unique index on
// transaction_id, meaning another delivery of the same event won the race.
var ErrDuplicateOrder = errors.New("order: order already exists for transaction")

// Repository is the persistence surface the saga handler needs: a lookup by
// correlation key and an insert.
type Repository interface {
	FindByTransactionID(ctx context.Context, transactionID string) (*Order, error)
	Create(ctx context.Context, o *Order) error
}

const (
	findByTransactionIDQuery = `
		SELECT id, order_number, order_date, transaction_id, status
		FROM orders
		WHERE transaction_id = ?`

	insertOrderQuery = `
		INSERT INTO orders (order_number, order_date, transaction_id, status)
		VALUES (?, ?, ?, ?)`
)

// SQLRepository stores orders in MySQL. The orders table carries a unique
// index on transaction_id so the idempotency invariant holds even under
// concurrent redelivery.
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository creates a repository on the given database handle.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// FindByTransactionID returns the order created for a gateway transaction,
// or nil when none exists.
func (r *SQLRepository) FindByTransactionID(ctx context.Context, transactionID string) (*Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx, findByTransactionIDQuery, transactionID).Scan(
		&o.ID,
		&o.OrderNumber,
		&o.OrderDate,
		&o.TransactionID,
		&o.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order by transaction id: %w", err)
	}
	return &o, nil
}

// Create inserts the order and fills in its generated id.
func (r *SQLRepository) Create(ctx context.Context, o *Order) error {
	res, err := r.db.ExecContext(ctx, insertOrderQuery,
		o.OrderNumber,
		o.OrderDate,
		o.TransactionID,
		o.Status,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", convertFromDBError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted order id: %w", err)
	}
	o.ID = id
	return nil
}

// convertFromDBError maps driver-specific errors to package errors.
func convertFromDBError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 { // duplicate entry
		return ErrDuplicateOrder
	}
	return err
}
