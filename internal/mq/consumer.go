package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает одно сообщение. Ошибка возвращает сообщение в очередь.
type Handler func(ctx context.Context, msg *Message) error

// Tap — привязка временной очереди для наблюдения за событиями.
type Tap struct {
	Exchange   Exchange
	RoutingKey RoutingKey
}

// CompletedTap — наблюдение за chain.completed без изъятия событий из chains.completed.
var CompletedTap = Tap{Exchange: ExchangeChains, RoutingKey: RoutingKeyCompleted}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	// Queue — имя очереди. Игнорируется, если задан Tap.
	Queue Queue

	// Tap — вместо Queue читать из эксклюзивной auto-delete очереди
	// с серверным именем, привязанной к Tap. Очередь объявляется заново
	// после каждого переподключения.
	Tap *Tap

	// Handler — обработчик сообщений.
	Handler Handler

	// Prefetch — количество неподтверждённых сообщений (по умолчанию 1).
	Prefetch int
}

// Consumer читает сообщения из очереди, переживая переподключения.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	tap      *Tap
	handler  Handler
	prefetch int
}

// channel — операции amqp.Channel, нужные consumer.
type channel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	if cfg.Tap != nil {
		logger = logger.With("tap", cfg.Tap.Exchange, "routing_key", cfg.Tap.RoutingKey)
	} else {
		logger = logger.With("queue", cfg.Queue)
	}

	return &Consumer{
		conn:     conn,
		logger:   logger,
		queue:    cfg.Queue,
		tap:      cfg.Tap,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Run потребляет сообщения до отмены ctx. Всегда возвращает ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
		} else {
			c.logger.Info("consumer started")
			c.drain(ctx, deliveries)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
			c.logger.Info("reconnected, restarting consumer")
		}
	}
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}
	return c.subscribeOn(ch)
}

func (c *Consumer) subscribeOn(ch channel) (<-chan amqp.Delivery, error) {
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	queue := string(c.queue)
	exclusive := false
	if c.tap != nil {
		q, err := ch.QueueDeclare(
			"",    // name: выдаёт сервер
			false, // durable
			true,  // delete when unused
			true,  // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return nil, fmt.Errorf("declare tap queue: %w", err)
		}
		if err := ch.QueueBind(q.Name, string(c.tap.RoutingKey), string(c.tap.Exchange), false, nil); err != nil {
			return nil, fmt.Errorf("bind tap queue to %s: %w", c.tap.Exchange, err)
		}
		queue = q.Name
		exclusive = true
	}

	deliveries, err := ch.Consume(
		queue,     // queue
		"",        // consumer tag
		false,     // auto-ack
		exclusive, // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, nil
}

// drain обрабатывает доставки, пока канал открыт и ctx жив.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-deliveries:
			if !ok {
				c.logger.Warn("deliveries channel closed")
				return
			}
			c.handle(ctx, raw)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, raw amqp.Delivery) {
	msg, err := DecodeMessage(raw.Body)
	if err != nil {
		c.logger.Error("malformed message, dead-lettering", "error", err)
		raw.Nack(false, false)
		return
	}

	if err := c.handler(ctx, msg); err != nil {
		c.logger.Error("handler failed", "message_id", msg.ID, "type", msg.Type, "error", err)
		raw.Nack(false, !raw.Redelivered)
		return
	}

	raw.Ack(false)
}

// DecodeMessage разбирает тело AMQP сообщения.
func DecodeMessage(body []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("message %q has no type", msg.ID)
	}
	return &msg, nil
}

// ParsePayload разбирает payload сообщения в указанный тип.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T
	if err := json.Unmarshal(msg.Payload, &result); err != nil {
		return result, fmt.Errorf("unmarshal %s payload: %w", msg.Type, err)
	}
	return result, nil
}
