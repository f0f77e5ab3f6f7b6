package rabbitmq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HandlerFunc processes one delivery. Its return value decides the fate of
// the message: nil acknowledges it, a Requeue-classified error nacks it back
// onto the queue, and any other error rejects it to the dead-letter
// exchange.
type HandlerFunc func(ctx context.Context, d amqp.Delivery) error

var jsonNull = []byte("null")

// JSONHandler adapts a typed event handler into a HandlerFunc. Malformed or
// null bodies are logged with the raw payload for forensic recovery and
// rejected to the dead-letter exchange without invoking handle.
func JSONHandler[T any](logger *zap.Logger, handle func(ctx context.Context, event T) error) HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(ctx context.Context, d amqp.Delivery) error {
		body := bytes.TrimSpace(d.Body)
		if len(body) == 0 || bytes.Equal(body, jsonNull) {
			logger.Error("Discarding empty event payload",
				zap.String("routing_key", d.RoutingKey),
				zap.ByteString("body", d.Body),
			)
			return fmt.Errorf("empty or null body: %w", ErrMalformedPayload)
		}

		var event T
		if err := json.Unmarshal(body, &event); err != nil {
			logger.Error("Discarding malformed event payload",
				zap.String("routing_key", d.RoutingKey),
				zap.ByteString("body", d.Body),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}

		return handle(ctx, event)
	}
}
