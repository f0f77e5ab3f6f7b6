package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends domain events to the broker. Publish returns nil only
// after the broker durably accepted the message; any error means the caller
// must not assume the event reached a consumer.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
	PublishJSON(ctx context.Context, exchange, routingKey string, payload interface{}) error
	Close() error
}

// NopPublisher is a publisher that does nothing. Useful for testing.
type NopPublisher struct{}

// NewNopPublisher creates a new NopPublisher.
func NewNopPublisher() *NopPublisher {
	return &NopPublisher{}
}

// Publish implements the Publisher interface.
func (p *NopPublisher) Publish(_ context.Context, _, _ string, _ []byte) error {
	return nil
}

// PublishJSON implements the Publisher interface.
func (p *NopPublisher) PublishJSON(_ context.Context, _, _ string, _ interface{}) error {
	return nil
}

// Close implements the Publisher interface.
func (p *NopPublisher) Close() error {
	return nil
}

// confirmation is the broker acknowledgment for a single published message.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// confirmChannel is the slice of *amqp.Channel the publisher uses.
type confirmChannel interface {
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (confirmation, error)
	IsClosed() bool
	Close() error
}

// amqpConfirmChannel adapts *amqp.Channel to confirmChannel. The wrapper
// exists because the concrete method returns *amqp.DeferredConfirmation.
type amqpConfirmChannel struct {
	*amqp.Channel
}

func (c amqpConfirmChannel) PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (confirmation, error) {
	conf, err := c.Channel.PublishWithDeferredConfirmWithContext(ctx, exchange, key, mandatory, immediate, msg)
	if err != nil {
		return nil, err
	}
	return conf, nil
}

// ConfirmedPublisher publishes persistent messages on a dedicated channel in
// confirm mode and waits synchronously for the broker acknowledgment.
//
// The channel is created lazily and recreated whenever the broker
// invalidates it; it is never shared with other publishers or consumers.
type ConfirmedPublisher struct {
	manager        *Manager
	logger         *zap.Logger
	metrics        MetricsCollector
	confirmTimeout time.Duration

	mu sync.Mutex
	ch confirmChannel
}

// NewConfirmedPublisher creates a publisher backed by the given connection
// manager.
func NewConfirmedPublisher(manager *Manager, opts ...PublisherOption) *ConfirmedPublisher {
	p := &ConfirmedPublisher{
		manager:        manager,
		logger:         zap.NewNop(),
		metrics:        NewNopMetricsCollector(),
		confirmTimeout: defaultConfirmTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishJSON marshals payload and publishes it. A marshal failure is
// returned before anything touches the broker.
func (p *ConfirmedPublisher) PublishJSON(ctx context.Context, exchange, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for %s/%s: %w", exchange, routingKey, err)
	}
	return p.Publish(ctx, exchange, routingKey, body)
}

// Publish sends body as a persistent JSON message and waits for the broker
// confirmation. It returns ErrConfirmTimeout when the broker does not answer
// within the confirmation timeout and ErrPublishRejected when it nacks.
func (p *ConfirmedPublisher) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	ch, err := p.ensureChannel()
	if err != nil {
		p.metrics.IncrementCounter("rabbitmq.publish_failed", map[string]string{"exchange": exchange})
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.confirmTimeout)
	defer cancel()

	start := time.Now()
	conf, err := ch.PublishWithDeferredConfirmWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.invalidateChannel()
		p.metrics.IncrementCounter("rabbitmq.publish_failed", map[string]string{"exchange": exchange})
		return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
	}

	acked, err := conf.WaitContext(ctx)
	if err != nil {
		p.invalidateChannel()
		if errors.Is(err, context.DeadlineExceeded) {
			p.metrics.IncrementCounter("rabbitmq.confirm_timeout", map[string]string{"exchange": exchange})
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, ErrConfirmTimeout)
		}
		p.metrics.IncrementCounter("rabbitmq.publish_failed", map[string]string{"exchange": exchange})
		return fmt.Errorf("publish to %s/%s: await confirmation: %w", exchange, routingKey, err)
	}
	if !acked {
		p.metrics.IncrementCounter("rabbitmq.publish_rejected", map[string]string{"exchange": exchange})
		return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, ErrPublishRejected)
	}

	p.metrics.RecordDuration("rabbitmq.publish_duration", time.Since(start), map[string]string{"exchange": exchange})
	p.metrics.IncrementCounter("rabbitmq.publish_success", map[string]string{"exchange": exchange})
	p.logger.Debug("Event published",
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey),
	)
	return nil
}

// ensureChannel returns the owned channel, recreating it in confirm mode
// when absent or closed.
func (p *ConfirmedPublisher) ensureChannel() (confirmChannel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	ch, err := p.manager.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	p.ch = amqpConfirmChannel{Channel: ch}
	return p.ch, nil
}

func (p *ConfirmedPublisher) invalidateChannel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
}

// Close releases the publisher's channel. The underlying connection stays
// with the Manager.
func (p *ConfirmedPublisher) Close() error {
	p.invalidateChannel()
	return nil
}
