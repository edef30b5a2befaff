package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"panic-alerter/internal/alerter/alerts"
	"panic-alerter/internal/alerter/config"
	"panic-alerter/pkg/broker"

	"github.com/google/uuid"
)

// heartbeatWire is the component liveness heartbeat emitted after every
// successfully processed delivery.
type heartbeatWire struct {
	ComponentName string  `json:"component_name"`
	Timestamp     float64 `json:"timestamp"`
}

// Alerter consumes one durable queue, classifies each delivery against
// its AlertsConfig, and republishes classified alerts and a liveness
// heartbeat.
type Alerter struct {
	name        string
	cfg         config.AlertsConfig
	broker      broker.Broker
	buffer      *PublishingBuffer
	states      *StateRegistry
	queueName   string
	consumerTag string
	now         func() float64
}

// NewAlerter builds an Alerter for cfg.ParentID, with a publishing
// buffer bounded at bufferCapacity.
func NewAlerter(name string, cfg config.AlertsConfig, b broker.Broker, bufferCapacity int) *Alerter {
	return &Alerter{
		name:        name,
		cfg:         cfg,
		broker:      b,
		buffer:      NewPublishingBuffer(bufferCapacity),
		states:      NewStateRegistry(cfg),
		queueName:   broker.SystemAlerterQueueName(cfg.ParentID),
		consumerTag: "system-alerter-" + uuid.NewString(),
	}
}

// Initialize declares the alerter's exchanges, queue, binding, and
// prefetch: prefetch is set to one-fifth of the publishing buffer
// capacity.
func (a *Alerter) Initialize(ctx context.Context) error {
	if err := a.broker.ExchangeDeclare(ctx, broker.AlertExchange); err != nil {
		return fmt.Errorf("declaring %s: %w", broker.AlertExchange, err)
	}
	if err := a.broker.ExchangeDeclare(ctx, broker.HealthCheckExchange); err != nil {
		return fmt.Errorf("declaring %s: %w", broker.HealthCheckExchange, err)
	}
	if err := a.broker.QueueDeclare(ctx, a.queueName); err != nil {
		return fmt.Errorf("declaring queue %s: %w", a.queueName, err)
	}
	routingKey := broker.AlerterRoutingKey(a.cfg.ParentID)
	if err := a.broker.QueueBind(ctx, a.queueName, broker.AlertExchange, routingKey); err != nil {
		return fmt.Errorf("binding queue %s: %w", a.queueName, err)
	}

	prefetch := (a.buffer.Capacity() + 4) / 5
	if prefetch < 1 {
		prefetch = 1
	}
	if err := a.broker.Qos(prefetch); err != nil {
		return fmt.Errorf("setting qos: %w", err)
	}
	return nil
}

// Run consumes deliveries until ctx is cancelled or the delivery
// channel closes. Exactly one delivery is classified at a time: there
// is no internal fan-out.
func (a *Alerter) Run(ctx context.Context) error {
	deliveries, err := a.broker.Consume(ctx, a.queueName, a.consumerTag, false)
	if err != nil {
		return fmt.Errorf("starting consume on %s: %w", a.queueName, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			if err := a.handleDelivery(ctx, d); err != nil {
				return err
			}
		}
	}
}

func (a *Alerter) handleDelivery(ctx context.Context, d broker.Delivery) error {
	classified, systemID, processingErr := a.classify(d)

	// Acknowledge unconditionally: the publishing buffer is the system
	// of record for generated alerts, and retrying a poison message
	// would not help.
	if err := a.broker.Ack(d.DeliveryTag); err != nil {
		slog.Error("failed to ack delivery", slog.String("error", err.Error()))
	}

	if processingErr {
		return nil
	}

	for _, al := range classified {
		body, err := json.Marshal(al)
		if err != nil {
			slog.Error("failed to marshal alert", slog.String("error", err.Error()))
			continue
		}
		a.buffer.Push(OutboundRecord{Exchange: broker.AlertExchange, RoutingKey: broker.AlertRouterRoutingKey, Body: body})
	}
	_ = systemID

	if err := a.buffer.Drain(a); err != nil {
		var notDelivered *broker.NotDeliveredError
		if errors.As(err, &notDelivered) {
			slog.Warn("alert not delivered, left buffered for next drain", slog.String("error", err.Error()))
			return nil
		}
		return err
	}

	heartbeat := heartbeatWire{ComponentName: a.name, Timestamp: a.nowOrDefault()}
	body, err := json.Marshal(heartbeat)
	if err != nil {
		return fmt.Errorf("marshaling heartbeat: %w", err)
	}
	if err := a.broker.PublishWithConfirm(ctx, broker.HealthCheckExchange, broker.HeartbeatWorkerRoutingKey, body, true); err != nil {
		var notDelivered *broker.NotDeliveredError
		if errors.As(err, &notDelivered) {
			slog.Warn("heartbeat not delivered", slog.String("error", err.Error()))
			return nil
		}
		return err
	}
	return nil
}

// classify decodes and classifies one delivery, returning whatever
// alerts resulted. A (true) processing-error return means the
// delivery's routing key or body shape was unusable; no state mutation
// for this tick should be assumed durable in that case.
func (a *Alerter) classify(d broker.Delivery) (out []alerts.Alert, systemID string, processingErr bool) {
	if !routingKeyHasComponent(d.RoutingKey, a.cfg.ParentID) {
		slog.Error("received delivery with unexpected routing key", slog.String("routing_key", d.RoutingKey))
		return nil, "", true
	}

	env, err := DecodeEnvelope(d.Body)
	if err != nil {
		slog.Error("error decoding delivery", slog.String("error", err.Error()), slog.String("body", string(d.Body)))
		return nil, "", true
	}

	switch {
	case env.Result != nil:
		state := a.states.Get(env.Result.Meta.SystemID)
		return ProcessResult(state, a.cfg, env.Result.Meta, env.Result.Metrics), env.Result.Meta.SystemID, false
	case env.Error != nil:
		state := a.states.Get(env.Error.SystemID)
		return ProcessError(state, a.cfg.SystemIsDown, *env.Error), env.Error.SystemID, false
	default:
		return nil, "", true
	}
}

// PublishOne implements Publisher for PublishingBuffer.Drain.
func (a *Alerter) PublishOne(r OutboundRecord) error {
	return a.broker.PublishWithConfirm(context.Background(), r.Exchange, r.RoutingKey, r.Body, false)
}

func (a *Alerter) nowOrDefault() float64 {
	if a.now != nil {
		return a.now()
	}
	return float64(nowUnix())
}

func routingKeyHasComponent(routingKey, component string) bool {
	for _, part := range strings.Split(routingKey, ".") {
		if part == component {
			return true
		}
	}
	return false
}
