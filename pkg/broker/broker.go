// Package broker wraps the AMQP 0-9-1 wire contract the alerting core
// speaks to RabbitMQ: durable topic exchanges, manual-ack consumption,
// and publisher-confirmed, persistent-mode publishing.
package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"panic-alerter/pkg/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Config holds the connection parameters read from the environment.
type Config struct {
	Host     string
	Port     int
	VHost    string
	Username string
	Password string
}

// ConfigFromEnv builds a Config from RABBIT_IP plus the usual AMQP
// connection settings, each with a sane local default so a developer
// can run against a local broker with no configuration.
func ConfigFromEnv() Config {
	return Config{
		Host:     config.GetEnv("RABBIT_IP", "localhost"),
		Port:     config.GetIntEnv("RABBIT_PORT", 5672),
		VHost:    config.GetEnv("RABBIT_VHOST", "/"),
		Username: config.GetEnv("RABBIT_USER", "guest"),
		Password: config.GetEnv("RABBIT_PASSWORD", "guest"),
	}
}

func (c Config) url() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s", c.Username, c.Password, c.Host, c.Port, c.VHost)
}

// Broker is the capability the alerting core consumes for
// topic-exchange publish/subscribe with publisher confirms. Both
// SystemAlerter and the Transformer Manager depend on this interface,
// not on *AMQPBroker directly, so tests substitute an in-memory fake
// (see brokertest.Fake).
type Broker interface {
	ExchangeDeclare(ctx context.Context, name string) error
	QueueDeclare(ctx context.Context, name string) error
	QueueBind(ctx context.Context, queue, exchange, routingKey string) error
	Qos(prefetchCount int) error
	Consume(ctx context.Context, queue, consumerTag string, autoAck bool) (<-chan Delivery, error)
	PublishWithConfirm(ctx context.Context, exchange, routingKey string, body []byte, mandatory bool) error
	Ack(deliveryTag uint64) error
	Close() error
}

// Delivery is the broker-agnostic shape a consumer callback works with.
type Delivery struct {
	Body        []byte
	RoutingKey  string
	DeliveryTag uint64
}

// AMQPBroker is the production Broker backed by amqp091-go.
type AMQPBroker struct {
	cfg     Config
	conn    *amqp.Connection
	channel *amqp.Channel
	confirm chan amqp.Confirmation
}

// NewAMQPBroker connects to RabbitMQ, retrying with exponential
// backoff until successful, bounded only by ctx — callers wanting a
// hard deadline should pass a context with a deadline.
func NewAMQPBroker(ctx context.Context, cfg Config) (*AMQPBroker, error) {
	b := &AMQPBroker{cfg: cfg}
	if err := b.connectTillSuccessful(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *AMQPBroker) connectTillSuccessful(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for attempt := 1; ; attempt++ {
		conn, err := amqp.Dial(b.cfg.url())
		if err == nil {
			channel, chErr := conn.Channel()
			if chErr == nil {
				if confirmErr := channel.Confirm(false); confirmErr != nil {
					conn.Close()
					err = fmt.Errorf("enabling publisher confirms: %w", confirmErr)
				} else {
					b.conn = conn
					b.channel = channel
					b.confirm = channel.NotifyPublish(make(chan amqp.Confirmation, 1))
					slog.Info("connected to broker", slog.String("host", b.cfg.Host), slog.Int("attempt", attempt))
					return nil
				}
			} else {
				conn.Close()
				err = fmt.Errorf("opening channel: %w", chErr)
			}
		}

		slog.Warn("broker connection attempt failed, retrying",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
			slog.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return fmt.Errorf("connect_till_successful cancelled: %w", ctx.Err())
		case <-time.After(backoff):
		}

		if backoff < maxBackoff {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

func (b *AMQPBroker) ExchangeDeclare(ctx context.Context, name string) error {
	return b.channel.ExchangeDeclare(name, "topic", true, false, false, false, nil)
}

func (b *AMQPBroker) QueueDeclare(ctx context.Context, name string) error {
	_, err := b.channel.QueueDeclare(name, true, false, false, false, nil)
	return err
}

func (b *AMQPBroker) QueueBind(ctx context.Context, queue, exchange, routingKey string) error {
	return b.channel.QueueBind(queue, routingKey, exchange, false, nil)
}

func (b *AMQPBroker) Qos(prefetchCount int) error {
	return b.channel.Qos(prefetchCount, 0, false)
}

func (b *AMQPBroker) Consume(ctx context.Context, queue, consumerTag string, autoAck bool) (<-chan Delivery, error) {
	raw, err := b.channel.Consume(queue, consumerTag, autoAck, false, false, false, nil)
	if err != nil {
		return nil, err
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for d := range raw {
			out <- Delivery{Body: d.Body, RoutingKey: d.RoutingKey, DeliveryTag: d.DeliveryTag}
		}
	}()
	return out, nil
}

// PublishWithConfirm publishes a persistent-delivery-mode message and
// blocks until the broker confirms it, returning a NotDeliveredError
// if the confirm reports the message as unroutable.
func (b *AMQPBroker) PublishWithConfirm(ctx context.Context, exchange, routingKey string, body []byte, mandatory bool) error {
	err := b.channel.PublishWithContext(ctx, exchange, routingKey, mandatory, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	select {
	case confirmation := <-b.confirm:
		if !confirmation.Ack {
			return &NotDeliveredError{Exchange: exchange, RoutingKey: routingKey}
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for publisher confirm: %w", ctx.Err())
	}
}

func (b *AMQPBroker) Ack(deliveryTag uint64) error {
	return b.channel.Ack(deliveryTag, false)
}

// Close tears down the channel and connection. Safe to call on a
// partially-initialized broker.
func (b *AMQPBroker) Close() error {
	var firstErr error
	if b.channel != nil {
		if err := b.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if b.conn != nil {
		if err := b.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NotDeliveredError represents a publisher confirm reporting a
// message as unroutable. Callers are expected to log and suppress it,
// leaving the record buffered for the next drain rather than treating
// it as fatal.
type NotDeliveredError struct {
	Exchange   string
	RoutingKey string
}

func (e *NotDeliveredError) Error() string {
	return fmt.Sprintf("message to exchange %q with routing key %q was not delivered", e.Exchange, e.RoutingKey)
}
