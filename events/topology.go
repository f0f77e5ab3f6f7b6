package events

import (
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/novamart/shopbus/rabbitmq"
)

// PaymentPublisherTopology is what the payment service needs to publish
// payment outcomes: the durable direct exchange only.
func PaymentPublisherTopology() rabbitmq.Topology {
	return rabbitmq.Topology{
		Exchanges: []rabbitmq.Exchange{
			{Name: PaymentExchange, Kind: amqp.ExchangeDirect, Durable: true},
		},
	}
}

// PaymentRetryTopology declares the payment service's own failure-retry
// queue with its dead-letter routing.
func PaymentRetryTopology() rabbitmq.Topology {
	return rabbitmq.Merge(
		PaymentPublisherTopology(),
		rabbitmq.DeadLetterPair(PaymentDeadLetterExchange, PaymentDeadLetterQueue),
		rabbitmq.Topology{
			Queues: []rabbitmq.Queue{
				{Name: PaymentRetryQueue, Durable: true, DeadLetterExchange: PaymentDeadLetterExchange},
			},
			Bindings: []rabbitmq.Binding{
				{Queue: PaymentRetryQueue, Exchange: PaymentExchange, RoutingKey: KeyPaymentFailed},
			},
		},
	)
}

// OrderTopology declares both payment-event queues the order service
// consumes, each dead-lettering into the order service's DLX.
func OrderTopology() rabbitmq.Topology {
	return rabbitmq.Merge(
		PaymentPublisherTopology(),
		rabbitmq.DeadLetterPair(OrderDeadLetterExchange, OrderDeadLetterQueue),
		rabbitmq.Topology{
			Queues: []rabbitmq.Queue{
				{Name: OrderPaymentSucceededQueue, Durable: true, DeadLetterExchange: OrderDeadLetterExchange},
				{Name: OrderPaymentFailedQueue, Durable: true, DeadLetterExchange: OrderDeadLetterExchange},
			},
			Bindings: []rabbitmq.Binding{
				{Queue: OrderPaymentSucceededQueue, Exchange: PaymentExchange, RoutingKey: KeyPaymentSucceeded},
				{Queue: OrderPaymentFailedQueue, Exchange: PaymentExchange, RoutingKey: KeyPaymentFailed},
			},
		},
	)
}

// ProductPublisherTopology is what the product service needs to publish
// product events.
func ProductPublisherTopology() rabbitmq.Topology {
	return rabbitmq.Topology{
		Exchanges: []rabbitmq.Exchange{
			{Name: ProductExchange, Kind: amqp.ExchangeDirect, Durable: true},
		},
	}
}

// SyncTopology declares the product-event queues the sync service consumes.
func SyncTopology() rabbitmq.Topology {
	return rabbitmq.Merge(
		ProductPublisherTopology(),
		rabbitmq.DeadLetterPair(SyncDeadLetterExchange, SyncDeadLetterQueue),
		rabbitmq.Topology{
			Queues: []rabbitmq.Queue{
				{Name: SyncProductSucceededQueue, Durable: true, DeadLetterExchange: SyncDeadLetterExchange},
				{Name: SyncProductFailedQueue, Durable: true, DeadLetterExchange: SyncDeadLetterExchange},
			},
			Bindings: []rabbitmq.Binding{
				{Queue: SyncProductSucceededQueue, Exchange: ProductExchange, RoutingKey: KeyProductAddSucceeded},
				{Queue: SyncProductFailedQueue, Exchange: ProductExchange, RoutingKey: KeyProductAddFailed},
			},
		},
	)
}
