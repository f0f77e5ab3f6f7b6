package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/novamart/shopbus/events"
)

func chargeRequest() ChargeRequest {
	return ChargeRequest{
		Amount:         5000,
		Currency:       "usd",
		Token:          "tok_1",
		CardholderName: "Jo Doe",
	}
}

func TestCreate_RejectsInvalidRequests(t *testing.T) {
	gateway := new(MockGateway)
	publisher := new(MockPublisher)
	svc := NewService(gateway, publisher, zap.NewNop())

	cases := []struct {
		name string
		req  ChargeRequest
	}{
		{"zero amount", ChargeRequest{Currency: "usd", Token: "tok_1"}},
		{"negative amount", ChargeRequest{Amount: -1, Currency: "usd", Token: "tok_1"}},
		{"missing currency", ChargeRequest{Amount: 100, Token: "tok_1"}},
		{"missing token", ChargeRequest{Amount: 100, Currency: "usd"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.Create(context.Background(), tc.req)
			assert.Nil(t, result)

			var valErr *ValidationError
			assert.ErrorAs(t, err, &valErr)
		})
	}

	gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_PublishesSucceededEvent(t *testing.T) {
	gateway := new(MockGateway)
	publisher := new(MockPublisher)
	svc := NewService(gateway, publisher, zap.NewNop())

	gateway.On("Charge", mock.Anything, chargeRequest()).
		Return(&ChargeResult{TransactionID: "pi_123", Amount: 5000, Currency: "usd"}, nil).Once()
	publisher.On("PublishJSON", mock.Anything, events.PaymentExchange, events.KeyPaymentSucceeded,
		mock.MatchedBy(func(e events.PaymentSucceeded) bool {
			return e.TransactionID == "pi_123" && e.Amount == 5000 && e.Currency == "usd"
		})).Return(nil).Once()

	result, err := svc.Create(context.Background(), chargeRequest())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "pi_123", result.TransactionID)
	gateway.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCreate_GatewayFailurePublishesRetryEnvelope(t *testing.T) {
	gateway := new(MockGateway)
	publisher := new(MockPublisher)
	svc := NewService(gateway, publisher, zap.NewNop())

	gwErr := &GatewayError{TransactionID: "pi_123", Reason: "card declined"}
	gateway.On("Charge", mock.Anything, mock.Anything).Return(nil, gwErr).Once()
	publisher.On("PublishJSON", mock.Anything, events.PaymentExchange, events.KeyPaymentFailed,
		mock.MatchedBy(func(e events.RetryEnvelope) bool {
			return e.RetryCount == 0 &&
				e.TransactionID == "pi_123" &&
				e.AttemptReference == "tok_1" &&
				e.Reason == "card declined"
		})).Return(nil).Once()

	result, err := svc.Create(context.Background(), chargeRequest())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, gwErr)
	publisher.AssertExpectations(t)
}

func TestCreate_FailurePublishErrorDoesNotMaskChargeError(t *testing.T) {
	gateway := new(MockGateway)
	publisher := new(MockPublisher)
	svc := NewService(gateway, publisher, zap.NewNop())

	gwErr := &GatewayError{Reason: "card declined"}
	gateway.On("Charge", mock.Anything, mock.Anything).Return(nil, gwErr).Once()
	publisher.On("PublishJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker unavailable")).Once()

	result, err := svc.Create(context.Background(), chargeRequest())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, gwErr)
}

func TestCreate_SuccessPublishFailureSurfacesBothResultAndError(t *testing.T) {
	gateway := new(MockGateway)
	publisher := new(MockPublisher)
	svc := NewService(gateway, publisher, zap.NewNop())

	pubErr := errors.New("confirm timed out")
	gateway.On("Charge", mock.Anything, mock.Anything).
		Return(&ChargeResult{TransactionID: "pi_123", Amount: 5000, Currency: "usd"}, nil).Once()
	publisher.On("PublishJSON", mock.Anything, events.PaymentExchange, events.KeyPaymentSucceeded, mock.Anything).
		Return(pubErr).Once()

	result, err := svc.Create(context.Background(), chargeRequest())
	require.NotNil(t, result, "the charge happened; the caller must learn the transaction id")
	assert.Equal(t, "pi_123", result.TransactionID)
	assert.ErrorIs(t, err, pubErr)
}
