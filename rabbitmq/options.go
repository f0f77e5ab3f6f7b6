package rabbitmq

import (
	"time"

	"go.uber.org/zap"
)

const (
	defaultConnectAttempts = 5
	defaultConnectDelay    = 5 * time.Second
	defaultConfirmTimeout  = 5 * time.Second
	defaultSetupRetryDelay = 5 * time.Second
)

//
// Manager Options
//

type ManagerOption func(*Manager)

func WithManagerLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithManagerMetrics(metrics MetricsCollector) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

//
// Publisher Options
//

type PublisherOption func(*ConfirmedPublisher)

func WithPublisherLogger(logger *zap.Logger) PublisherOption {
	return func(p *ConfirmedPublisher) {
		p.logger = logger
	}
}

func WithPublisherMetrics(metrics MetricsCollector) PublisherOption {
	return func(p *ConfirmedPublisher) {
		p.metrics = metrics
	}
}

// WithConfirmTimeout bounds how long Publish waits for the broker
// confirmation before reporting ErrConfirmTimeout.
func WithConfirmTimeout(timeout time.Duration) PublisherOption {
	return func(p *ConfirmedPublisher) {
		p.confirmTimeout = timeout
	}
}

//
// Consumer Options
//

type ConsumerOption func(*Consumer)

func WithConsumerLogger(logger *zap.Logger) ConsumerOption {
	return func(c *Consumer) {
		c.logger = logger
	}
}

func WithConsumerMetrics(metrics MetricsCollector) ConsumerOption {
	return func(c *Consumer) {
		c.metrics = metrics
	}
}

// WithConsumerTag sets the consumer tag reported to the broker and used as
// the worker name.
func WithConsumerTag(tag string) ConsumerOption {
	return func(c *Consumer) {
		c.tag = tag
	}
}

// WithSetupRetryDelay sets the pause between consume-loop restarts after a
// channel loss.
func WithSetupRetryDelay(delay time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.retryDelay = delay
	}
}
