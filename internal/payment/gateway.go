// Package payment validates charge requests, calls the external payment
// gateway, and publishes the outcome as events. The gateway itself is an
// opaque collaborator; only its success, decline, and error outcomes matter
// here.
package payment

import (
	"context"
	"fmt"
)

// ChargeRequest carries what the gateway needs for one charge attempt.
// Token references the card details collected upstream.
type ChargeRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Token          string `json:"token"`
	CardholderName string `json:"cardholderName"`
}

// ChargeResult is a durably accepted charge.
type ChargeResult struct {
	TransactionID string `json:"transactionId"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

// Gateway is the external charge collaborator. Retry re-attempts a failed
// charge from its attempt reference, used by the bounded failure-retry flow.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Retry(ctx context.Context, attemptReference string) (*ChargeResult, error)
}

// ValidationError reports a request that never reached the gateway.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payment request: %s %s", e.Field, e.Reason)
}

// GatewayError reports a charge the gateway declined or could not process.
// TransactionID is set when the gateway created a transaction before
// failing it.
type GatewayError struct {
	TransactionID string
	Reason        string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %s", e.Reason)
}
