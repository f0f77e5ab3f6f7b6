package rabbitmq

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// outcome is what the consumer does with a delivery after the handler ran.
type outcome int

const (
	outcomeAck outcome = iota
	outcomeDeadLetter
	outcomeRequeue
)

func classify(err error) outcome {
	switch {
	case err == nil:
		return outcomeAck
	case IsRequeue(err):
		return outcomeRequeue
	default:
		return outcomeDeadLetter
	}
}

// consumeChannel is the slice of *amqp.Channel the consumer uses.
type consumeChannel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Consumer subscribes to one queue on its own channel and feeds deliveries
// to a single handler, one message at a time (prefetch 1), so ordering
// within the queue is preserved.
//
// When the broker invalidates the channel the consumer does not repair it in
// place: it runs the whole setup again (new channel, QoS, re-subscribe)
// after a fixed delay. It keeps doing so until the context is cancelled or
// Stop is called; stopping waits for the in-flight handler to finish so a
// message is never acknowledged with its handler half-run.
type Consumer struct {
	manager     *Manager
	queue       string
	tag         string
	handler     HandlerFunc
	logger      *zap.Logger
	metrics     MetricsCollector
	retryDelay  time.Duration
	openChannel func() (consumeChannel, error)

	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopOnce sync.Once
	stopChan chan struct{}
	started  bool
}

// NewConsumer creates a consumer for one queue. Each queue a service
// consumes from gets its own Consumer instance; they run in parallel.
func NewConsumer(manager *Manager, queue string, handler HandlerFunc, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		manager:    manager,
		queue:      queue,
		handler:    handler,
		logger:     zap.NewNop(),
		metrics:    NewNopMetricsCollector(),
		retryDelay: defaultSetupRetryDelay,
		stopChan:   make(chan struct{}),
	}
	c.openChannel = func() (consumeChannel, error) {
		ch, err := c.manager.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the consumer to the Dispatcher.
func (c *Consumer) Name() string {
	if c.tag != "" {
		return c.tag
	}
	return "consumer:" + c.queue
}

// Start runs the consume loop. It blocks until the context is cancelled or
// Stop is called.
func (c *Consumer) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		c.logger.Warn("Consumer already started", zap.String("queue", c.queue))
		return
	}
	c.started = true
	c.mu.Unlock()

	c.logger.Info("Consumer starting", zap.String("queue", c.queue))
	defer c.logger.Info("Consumer finished", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		default:
		}

		if err := c.consume(ctx); err != nil {
			c.metrics.IncrementCounter("rabbitmq.consumer_restart", map[string]string{"queue": c.queue})
			c.logger.Warn("Consumer lost its channel, re-establishing",
				zap.String("queue", c.queue),
				zap.Duration("delay", c.retryDelay),
				zap.Error(err),
			)
			c.sleep(ctx)
		}
	}
}

// consume performs one full setup and drains deliveries until the channel
// dies or the consumer is told to stop. A nil return means stop; an error
// means the setup should run again.
func (c *Consumer) consume(ctx context.Context) error {
	ch, err := c.openChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	// One unacknowledged delivery in flight per channel.
	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}

	closes := ch.NotifyClose(make(chan *amqp.Error, 1))

	deliveries, err := ch.Consume(c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return err
	}

	c.logger.Info("Subscribed to queue", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.stopChan:
			return nil
		case amqpErr := <-closes:
			if amqpErr != nil {
				return amqpErr
			}
			return ErrChannelClosed
		case d, ok := <-deliveries:
			if !ok {
				return ErrChannelClosed
			}
			// Count the delivery before the stop re-check so Stop's wait
			// cannot return while this handler is about to begin.
			c.wg.Add(1)
			select {
			case <-c.stopChan:
				if nackErr := d.Nack(false, true); nackErr != nil {
					c.logger.Error("Failed to nack delivery during shutdown",
						zap.String("queue", c.queue),
						zap.Uint64("delivery_tag", d.DeliveryTag),
						zap.Error(nackErr),
					)
				}
				c.wg.Done()
				return nil
			default:
			}
			c.dispatch(ctx, d)
			c.wg.Done()
		}
	}
}

// dispatch runs the handler for one delivery and settles it. Handler calls
// are independent: no state is shared between messages.
func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery) {
	start := time.Now()
	err := c.handler(ctx, d)
	c.metrics.RecordDuration("rabbitmq.handle_duration", time.Since(start), map[string]string{"queue": c.queue})

	switch classify(err) {
	case outcomeAck:
		if ackErr := d.Ack(false); ackErr != nil {
			c.logger.Error("Failed to ack delivery",
				zap.String("queue", c.queue),
				zap.Uint64("delivery_tag", d.DeliveryTag),
				zap.Error(ackErr),
			)
			return
		}
		c.metrics.IncrementCounter("rabbitmq.message_acked", map[string]string{"queue": c.queue})

	case outcomeRequeue:
		c.logger.Warn("Handler failed transiently, requeueing delivery",
			zap.String("queue", c.queue),
			zap.Uint64("delivery_tag", d.DeliveryTag),
			zap.Error(err),
		)
		if nackErr := d.Nack(false, true); nackErr != nil {
			c.logger.Error("Failed to nack delivery", zap.String("queue", c.queue), zap.Error(nackErr))
			return
		}
		c.metrics.IncrementCounter("rabbitmq.message_requeued", map[string]string{"queue": c.queue})

	case outcomeDeadLetter:
		c.logger.Error("Handler failed, rejecting delivery to dead-letter exchange",
			zap.String("queue", c.queue),
			zap.Uint64("delivery_tag", d.DeliveryTag),
			zap.Error(err),
		)
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to nack delivery", zap.String("queue", c.queue), zap.Error(nackErr))
			return
		}
		c.metrics.IncrementCounter("rabbitmq.message_deadlettered", map[string]string{"queue": c.queue})
	}
}

// sleep pauses before the next setup attempt, waking early on cancellation.
func (c *Consumer) sleep(ctx context.Context) {
	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-c.stopChan:
	case <-timer.C:
	}
}

// Stop shuts the consumer down: no new deliveries are accepted and the
// in-flight handler, if any, is allowed to finish. Safe to call multiple
// times.
func (c *Consumer) Stop() {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	// A Stop before Start is a no-op and must not spend stopOnce, or a
	// later Start could only be stopped through its context.
	if !started {
		return
	}

	c.stopOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
}
