// Package order turns payment outcomes into order records. Order creation
// is idempotent on the gateway transaction id: replaying the same
// payment-succeeded event never creates a second order.
package order

import "time"

// Statuses an order moves through. StatusProcessing is set at creation from
// a succeeded payment; later transitions belong to fulfillment and never
// lead back here.
const (
	StatusProcessing = "PROCESSING_ORDER"
	StatusShipped    = "SHIPPED"
	StatusDelivered  = "DELIVERED"
	StatusCancelled  = "CANCELLED"
)

// Order is the durable record created from a PaymentSucceeded event.
type Order struct {
	ID            int64
	OrderNumber   string
	OrderDate     time.Time
	TransactionID string
	Status        string
}
