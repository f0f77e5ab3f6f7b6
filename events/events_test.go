package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentSucceeded_Decode(t *testing.T) {
	body := []byte(`{"transactionId":"pi_123","amount":5000,"currency":"usd","timestamp":"2026-01-15T10:30:00Z"}`)

	var event PaymentSucceeded
	require.NoError(t, json.Unmarshal(body, &event))

	assert.Equal(t, "pi_123", event.TransactionID)
	assert.Equal(t, int64(5000), event.Amount)
	assert.Equal(t, "usd", event.Currency)
	assert.False(t, event.Timestamp.IsZero())
}

func TestRetryEnvelope_WireShape(t *testing.T) {
	// The envelope is the failed-payment payload with retryCount as a
	// sibling field, not a nested object.
	body := []byte(`{"transactionId":"pi_123","attemptReference":"tok_1","reason":"card declined","retryCount":2}`)

	var envelope RetryEnvelope
	require.NoError(t, json.Unmarshal(body, &envelope))

	assert.Equal(t, "pi_123", envelope.TransactionID)
	assert.Equal(t, "tok_1", envelope.AttemptReference)
	assert.Equal(t, "card declined", envelope.Reason)
	assert.Equal(t, 2, envelope.RetryCount)

	out, err := json.Marshal(envelope)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"retryCount":2`)
	assert.Contains(t, string(out), `"attemptReference":"tok_1"`)
	assert.NotContains(t, string(out), `"paymentFailed"`)
}

func TestPaymentFailed_OmitsEmptyTransactionID(t *testing.T) {
	out, err := json.Marshal(PaymentFailed{AttemptReference: "tok_1", Reason: "gateway unreachable"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "transactionId")
}

func TestProductAddSucceeded_Decode(t *testing.T) {
	body := []byte(`{
		"name": "Trail Jacket",
		"price": 129.95,
		"description": "Waterproof shell",
		"variants": ["S", "M", "L"],
		"discounts": 10,
		"images": ["jacket.png"],
		"specifications": {"color": "green"}
	}`)

	var event ProductAddSucceeded
	require.NoError(t, json.Unmarshal(body, &event))

	assert.Equal(t, "Trail Jacket", event.Name)
	assert.Equal(t, 129.95, event.Price)
	assert.Equal(t, []string{"S", "M", "L"}, event.Variants)
	assert.Equal(t, map[string]string{"color": "green"}, event.Specifications)
}
