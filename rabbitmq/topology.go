package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange describes a broker exchange to declare.
type Exchange struct {
	Name    string
	Kind    string // amqp.ExchangeDirect, amqp.ExchangeFanout, ...
	Durable bool
}

// Queue describes a broker queue to declare. When DeadLetterExchange is set,
// messages the consumer rejects without requeue are routed there.
type Queue struct {
	Name               string
	Durable            bool
	DeadLetterExchange string
}

// Binding routes messages from an exchange to a queue by routing key.
type Binding struct {
	Queue      string
	Exchange   string
	RoutingKey string
}

// Topology is the declarative description of everything a service needs on
// the broker. Each service assembles its own topology and declares it at
// startup; all declarations are idempotent.
type Topology struct {
	Exchanges []Exchange
	Queues    []Queue
	Bindings  []Binding
}

// Merge combines several topologies into one. Duplicate declarations are
// harmless because the broker treats re-declaration as a no-op.
func Merge(ts ...Topology) Topology {
	var out Topology
	for _, t := range ts {
		out.Exchanges = append(out.Exchanges, t.Exchanges...)
		out.Queues = append(out.Queues, t.Queues...)
		out.Bindings = append(out.Bindings, t.Bindings...)
	}
	return out
}

// declarer is the slice of *amqp.Channel the topology needs.
type declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

func (t Topology) declare(ch declarer) error {
	for _, e := range t.Exchanges {
		if err := ch.ExchangeDeclare(e.Name, e.Kind, e.Durable, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %q: %w", e.Name, err)
		}
	}

	for _, q := range t.Queues {
		var args amqp.Table
		if q.DeadLetterExchange != "" {
			args = amqp.Table{"x-dead-letter-exchange": q.DeadLetterExchange}
		}
		if _, err := ch.QueueDeclare(q.Name, q.Durable, false, false, false, args); err != nil {
			return fmt.Errorf("declare queue %q: %w", q.Name, err)
		}
	}

	for _, b := range t.Bindings {
		if err := ch.QueueBind(b.Queue, b.RoutingKey, b.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %q to exchange %q: %w", b.Queue, b.Exchange, err)
		}
	}

	return nil
}

// DeadLetterPair returns the fanout dead-letter exchange and its bound queue
// for one service. The binding uses an empty routing key because fanout
// exchanges ignore it.
func DeadLetterPair(exchange, queue string) Topology {
	return Topology{
		Exchanges: []Exchange{{Name: exchange, Kind: amqp.ExchangeFanout, Durable: true}},
		Queues:    []Queue{{Name: queue, Durable: true}},
		Bindings:  []Binding{{Queue: queue, Exchange: exchange, RoutingKey: ""}},
	}
}
