// Package brokertest provides an in-memory broker.Broker for exercising
// the System Alerter and Transformer Manager without a real RabbitMQ.
package brokertest

import (
	"context"
	"sync"

	"panic-alerter/pkg/broker"
)

// Published records one call to PublishWithConfirm.
type Published struct {
	Exchange   string
	RoutingKey string
	Body       []byte
	Mandatory  bool
}

// Fake is a single-process, non-durable stand-in for broker.Broker.
// Deliveries are injected with Deliver; published and acked messages
// are recorded for assertions.
type Fake struct {
	mu sync.Mutex

	Published    []Published
	Acked        []uint64
	NextDeliverFails bool // forces PublishWithConfirm to report not-delivered

	deliveries chan broker.Delivery
	nextTag    uint64
}

// NewFake returns a ready-to-use Fake whose delivery channel buffers up
// to 64 deliveries.
func NewFake() *Fake {
	return &Fake{deliveries: make(chan broker.Delivery, 64)}
}

func (f *Fake) ExchangeDeclare(ctx context.Context, name string) error { return nil }
func (f *Fake) QueueDeclare(ctx context.Context, name string) error    { return nil }
func (f *Fake) QueueBind(ctx context.Context, queue, exchange, routingKey string) error {
	return nil
}
func (f *Fake) Qos(prefetchCount int) error { return nil }

func (f *Fake) Consume(ctx context.Context, queue, consumerTag string, autoAck bool) (<-chan broker.Delivery, error) {
	return f.deliveries, nil
}

func (f *Fake) PublishWithConfirm(ctx context.Context, exchange, routingKey string, body []byte, mandatory bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Published = append(f.Published, Published{Exchange: exchange, RoutingKey: routingKey, Body: body, Mandatory: mandatory})

	if f.NextDeliverFails {
		f.NextDeliverFails = false
		return &broker.NotDeliveredError{Exchange: exchange, RoutingKey: routingKey}
	}
	return nil
}

func (f *Fake) Ack(deliveryTag uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Acked = append(f.Acked, deliveryTag)
	return nil
}

func (f *Fake) Close() error { return nil }

// Deliver injects a delivery as if it arrived from the broker, assigning
// it the next sequential delivery tag.
func (f *Fake) Deliver(routingKey string, body []byte) uint64 {
	f.mu.Lock()
	f.nextTag++
	tag := f.nextTag
	f.mu.Unlock()

	f.deliveries <- broker.Delivery{Body: body, RoutingKey: routingKey, DeliveryTag: tag}
	return tag
}

// Close the delivery channel so a Consume loop ranging over it exits.
func (f *Fake) CloseDeliveries() {
	close(f.deliveries)
}
