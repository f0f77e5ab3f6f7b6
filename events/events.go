// Package events defines the wire-level event envelopes exchanged between
// the payment, order, product, and sync services, together with the broker
// names they travel under. Bodies are UTF-8 JSON.
package events

import "time"

// Exchange and routing-key names. Every consumed queue is durable and
// configured with a dead-letter exchange, declared per service below.
const (
	PaymentExchange = "payment-events"
	ProductExchange = "product-events"

	KeyPaymentSucceeded    = "payment.succeeded"
	KeyPaymentFailed       = "payment.failed"
	KeyProductAddSucceeded = "product.add.succeeded"
	KeyProductAddFailed    = "product.add.failed"
)

// Queue names, one per consumer.
const (
	OrderPaymentSucceededQueue = "order.payment-succeeded"
	OrderPaymentFailedQueue    = "order.payment-failed"
	PaymentRetryQueue          = "payment.failure-retry"
	SyncProductSucceededQueue  = "sync.product-add-succeeded"
	SyncProductFailedQueue     = "sync.product-add-failed"
)

// Dead-letter exchanges and queues, one pair per consuming service.
const (
	OrderDeadLetterExchange   = "order-dead-letter-exchange"
	OrderDeadLetterQueue      = "order-dead-letter-queue"
	PaymentDeadLetterExchange = "payment-dead-letter-exchange"
	PaymentDeadLetterQueue    = "payment-dead-letter-queue"
	SyncDeadLetterExchange    = "sync-dead-letter-exchange"
	SyncDeadLetterQueue       = "sync-dead-letter-queue"
)

// PaymentSucceeded is published by the payment service after the gateway
// durably accepted a charge. TransactionID is the gateway transaction id and
// doubles as the idempotency key for order creation.
type PaymentSucceeded struct {
	TransactionID string    `json:"transactionId"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Timestamp     time.Time `json:"timestamp"`
}

// PaymentFailed is published when a charge was declined or errored.
// TransactionID may be empty when the gateway rejected the attempt before a
// transaction existed; AttemptReference is always set.
type PaymentFailed struct {
	TransactionID    string    `json:"transactionId,omitempty"`
	AttemptReference string    `json:"attemptReference"`
	Reason           string    `json:"reason"`
	Timestamp        time.Time `json:"timestamp"`
}

// RetryEnvelope wraps a failed payment for the bounded retry flow. It is
// republished with an incremented RetryCount after each unsuccessful retry;
// once RetryCount reaches the configured maximum the message is
// acknowledged and left for manual handling.
type RetryEnvelope struct {
	PaymentFailed
	RetryCount int `json:"retryCount"`
}

// ProductAddSucceeded is published by the product service after a product
// was created locally. Name is the only correlation key the upstream
// provides; the sync service treats it as the idempotency key.
type ProductAddSucceeded struct {
	Name           string            `json:"name"`
	Price          float64           `json:"price"`
	Description    string            `json:"description"`
	Variants       []string          `json:"variants"`
	Discounts      float64           `json:"discounts"`
	Images         []string          `json:"images"`
	Specifications map[string]string `json:"specifications"`
	Timestamp      time.Time         `json:"timestamp"`
}

// ProductAddFailed is published when the product service could not create a
// product.
type ProductAddFailed struct {
	Name      string    `json:"name"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
