package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"go.uber.org/zap"
)

// StripeGateway charges through Stripe: a PaymentMethod is created from the
// card token, then a PaymentIntent is created and confirmed in one call.
type StripeGateway struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeGateway creates a gateway bound to the given secret API key.
func NewStripeGateway(apiKey string, logger *zap.Logger) *StripeGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeGateway{api: client.New(apiKey, nil), logger: logger}
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	methodParams := &stripe.PaymentMethodParams{
		Params: stripe.Params{Context: ctx},
		Type:   stripe.String("card"),
		Card:   &stripe.PaymentMethodCardParams{Token: stripe.String(req.Token)},
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Name: stripe.String(req.CardholderName),
		},
	}
	method, err := g.api.PaymentMethods.New(methodParams)
	if err != nil {
		return nil, convertStripeError("", err)
	}
	g.logger.Debug("Created payment method", zap.String("payment_method_id", method.ID))

	intentParams := &stripe.PaymentIntentParams{
		Params:        stripe.Params{Context: ctx},
		Amount:        stripe.Int64(req.Amount),
		Currency:      stripe.String(req.Currency),
		PaymentMethod: stripe.String(method.ID),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	intent, err := g.api.PaymentIntents.New(intentParams)
	if err != nil {
		return nil, convertStripeError("", err)
	}
	return intentResult(intent)
}

// Retry re-confirms an existing PaymentIntent. The reference must be an
// intent the gateway created on a previous attempt; card tokens are
// single-use and cannot be charged again.
func (g *StripeGateway) Retry(ctx context.Context, attemptReference string) (*ChargeResult, error) {
	confirmParams := &stripe.PaymentIntentConfirmParams{
		Params: stripe.Params{Context: ctx},
	}
	intent, err := g.api.PaymentIntents.Confirm(attemptReference, confirmParams)
	if err != nil {
		return nil, convertStripeError(attemptReference, err)
	}
	return intentResult(intent)
}

func intentResult(intent *stripe.PaymentIntent) (*ChargeResult, error) {
	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusRequiresCapture:
		return &ChargeResult{
			TransactionID: intent.ID,
			Amount:        intent.Amount,
			Currency:      string(intent.Currency),
		}, nil
	}

	reason := fmt.Sprintf("payment ended with status %s", intent.Status)
	if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
		reason = intent.LastPaymentError.Msg
	}
	return nil, &GatewayError{TransactionID: intent.ID, Reason: reason}
}

// convertStripeError maps Stripe API errors to GatewayError so callers can
// tell a gateway verdict apart from transport failures, which pass through
// unchanged.
func convertStripeError(transactionID string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.PaymentIntent != nil {
			transactionID = stripeErr.PaymentIntent.ID
		}
		return &GatewayError{TransactionID: transactionID, Reason: stripeErr.Msg}
	}
	return err
}
