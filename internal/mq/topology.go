package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeChains Exchange = "atento.chains"
	ExchangeDLQ    Exchange = "atento.dlq"
)

// Queues — имена очередей.
const (
	QueueChainsCompleted Queue = "chains.completed"
	QueueDLQChains       Queue = "dlq.chains"
)

// Routing keys.
const (
	RoutingKeyCompleted RoutingKey = "completed"
	RoutingKeyDLQChains RoutingKey = "chains"
)

// binding — очередь, привязанная к обменнику.
type binding struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
	args       amqp.Table
}

// bindings — полная топология Atento.
var bindings = []binding{
	{
		queue:      QueueChainsCompleted,
		routingKey: RoutingKeyCompleted,
		exchange:   ExchangeChains,
		args: amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQChains),
		},
	},
	{
		queue:      QueueDLQChains,
		routingKey: RoutingKeyDLQChains,
		exchange:   ExchangeDLQ,
	},
}

// SetupTopology объявляет exchanges, queues и bindings. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range []Exchange{ExchangeChains, ExchangeDLQ} {
			err := ch.ExchangeDeclare(
				string(ex), // name
				"direct",   // type
				true,       // durable
				false,      // auto-deleted
				false,      // internal
				false,      // no-wait
				nil,        // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		for _, b := range bindings {
			_, err := ch.QueueDeclare(
				string(b.queue), // name
				true,            // durable
				false,           // delete when unused
				false,           // exclusive
				false,           // no-wait
				b.args,          // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}

			err = ch.QueueBind(
				string(b.queue),      // queue name
				string(b.routingKey), // routing key
				string(b.exchange),   // exchange
				false,                // no-wait
				nil,                  // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Atento RabbitMQ Topology:

    atento.chains (direct)
    └── chains.completed [routing: completed]
            Publisher: atento-api, atento-scheduler, atento run --record
            DLQ: dlq.chains
    └── (exclusive, auto-delete) [routing: completed]
            Consumer:  atento events watch

    atento.dlq (direct)
    └── dlq.chains [routing: chains]
            Manual processing
  `
}
