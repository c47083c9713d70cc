package rabbitmq

import (
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	amqp "github.com/streadway/amqp"
)

// OrderQueue is the durable queue that carries order events.
const OrderQueue = "order_queue"

// Order event types.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OrderEvent is the message published whenever an order is created or changes status.
type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"order_id"`
	Status        string    `json:"status"`
	Total         string    `json:"total"`
	Items         int       `json:"items"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Encode marshals the event.
func (e OrderEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeOrderEvent unmarshals a message body.
func DecodeOrderEvent(body []byte) (OrderEvent, error) {
	var e OrderEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return OrderEvent{}, fmt.Errorf("failed to decode order event: %w", err)
	}
	return e, nil
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     zerolog.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

func declareOrderQueue(ch *amqp.Channel) (amqp.Queue, error) {
	return ch.QueueDeclare(
		OrderQueue, // name
		true,       // durable
		false,      // delete when unused
		false,      // exclusive
		false,      // no-wait
		nil,        // arguments
	)
}

// NewClient connects to RabbitMQ, opens a channel and declares the order queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err = declareOrderQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", OrderQueue, err)
	}

	logger := log.With().Str("component", "rabbitmq").Logger()
	logger.Info().Str("queue", OrderQueue).Msg("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
		log:     logger,
	}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PublishOrderEvent publishes a persistent JSON message to the order queue.
func (c *Client) PublishOrderEvent(event OrderEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := event.Encode()
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	err = c.channel.Publish(
		"",         // default exchange
		OrderQueue, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.log.Debug().Str("type", event.Type).Str("order_id", event.OrderID).Msg("order event sent")
	return nil
}

// ConsumeOrderEvents starts a goroutine that hands every decoded order event to handler.
// Messages are acked when handler returns nil. Undecodable messages are dropped;
// handler errors requeue the message.
func (c *Client) ConsumeOrderEvents(handler func(OrderEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := declareOrderQueue(c.channel)
	if err != nil {
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			c.handleDelivery(msg, handler)
		}
		c.log.Info().Msg("order event consumer stopped")
	}()
	return nil
}

func (c *Client) handleDelivery(msg amqp.Delivery, handler func(OrderEvent) error) {
	event, err := DecodeOrderEvent(msg.Body)
	if err != nil {
		c.log.Warn().Err(err).Uint64("tag", msg.DeliveryTag).Msg("dropping malformed message")
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.log.Error().Err(nackErr).Uint64("tag", msg.DeliveryTag).Msg("nack failed")
		}
		return
	}
	if err := handler(event); err != nil {
		c.log.Error().Err(err).Uint64("tag", msg.DeliveryTag).Msg("order event handler failed")
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.log.Error().Err(nackErr).Uint64("tag", msg.DeliveryTag).Msg("nack failed")
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.log.Error().Err(ackErr).Uint64("tag", msg.DeliveryTag).Msg("ack failed")
	}
}
