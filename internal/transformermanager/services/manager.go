package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"panic-alerter/pkg/broker"

	"github.com/google/uuid"
)

// heartbeatWire is the Manager's liveness heartbeat: which children are
// running, which are dead, and when.
type heartbeatWire struct {
	ComponentName string   `json:"component_name"`
	Running       []string `json:"running"`
	Dead          []string `json:"dead"`
	Timestamp     float64  `json:"timestamp"`
}

// Manager supervises a fixed, named set of worker processes, answering
// liveness pings with a heartbeat and restarting dead children.
type Manager struct {
	name     string
	broker   broker.Broker
	children map[string]ChildHandle
	names    []string // stable iteration order for deterministic heartbeats
	now      func() float64
}

// New builds a Manager supervising children, keyed by worker name (e.g.
// "system_data_transformer", "github_data_transformer").
func New(name string, b broker.Broker, children map[string]ChildHandle) *Manager {
	names := make([]string, 0, len(children))
	for n := range children {
		names = append(names, n)
	}
	sort.Strings(names)
	return &Manager{name: name, broker: b, children: children, names: names}
}

// Initialize declares the health-check exchange, the manager's ping
// queue, and its binding, with auto-ack consumption since ping
// messages carry no payload worth retrying.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := m.broker.ExchangeDeclare(ctx, broker.HealthCheckExchange); err != nil {
		return fmt.Errorf("declaring %s: %w", broker.HealthCheckExchange, err)
	}
	if err := m.broker.QueueDeclare(ctx, broker.PingQueueName); err != nil {
		return fmt.Errorf("declaring queue %s: %w", broker.PingQueueName, err)
	}
	if err := m.broker.QueueBind(ctx, broker.PingQueueName, broker.HealthCheckExchange, broker.PingRoutingKey); err != nil {
		return fmt.Errorf("binding queue %s: %w", broker.PingQueueName, err)
	}
	return nil
}

// EnsureStarted starts every named child that is absent or dead,
// logging an "Attempting to start the X." line, tagged with a fresh
// correlation id, for each one it (re)launches.
func (m *Manager) EnsureStarted() error {
	for _, name := range m.names {
		child := m.children[name]
		if child.IsAlive() {
			continue
		}
		attemptID := uuid.New().String()
		slog.Info(fmt.Sprintf("Attempting to start the %s.", name), slog.String("attempt_id", attemptID))
		if err := child.Start(); err != nil {
			return fmt.Errorf("starting %s (attempt %s): %w", name, attemptID, err)
		}
	}
	return nil
}

// Run ensures every child is started, then blocks consuming pings until
// ctx is cancelled. The topology it consumes from is declared by
// Initialize.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.EnsureStarted(); err != nil {
		return err
	}

	deliveries, err := m.broker.Consume(ctx, broker.PingQueueName, "transformer-manager", true)
	if err != nil {
		return fmt.Errorf("starting consume on %s: %w", broker.PingQueueName, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-deliveries:
			if !ok {
				return nil
			}
			if err := m.handlePing(ctx); err != nil {
				return err
			}
		}
	}
}

func (m *Manager) handlePing(ctx context.Context) error {
	var running, dead []string
	for _, name := range m.names {
		child := m.children[name]
		if child.IsAlive() {
			running = append(running, name)
			continue
		}
		dead = append(dead, name)
		if err := child.Join(); err != nil {
			slog.Warn("error joining dead child", slog.String("child", name), slog.String("error", err.Error()))
		}
	}

	if len(dead) > 0 {
		if err := m.EnsureStarted(); err != nil {
			return err
		}
	}

	heartbeat := heartbeatWire{ComponentName: m.name, Running: running, Dead: dead, Timestamp: m.nowOrDefault()}
	body, err := json.Marshal(heartbeat)
	if err != nil {
		return fmt.Errorf("marshaling heartbeat: %w", err)
	}

	if err := m.broker.PublishWithConfirm(ctx, broker.HealthCheckExchange, broker.HeartbeatManagerRoutingKey, body, true); err != nil {
		var notDelivered *broker.NotDeliveredError
		if errors.As(err, &notDelivered) {
			slog.Warn("heartbeat not delivered", slog.String("error", err.Error()))
			return nil
		}
		return err
	}
	return nil
}

// Shutdown terminates and joins every child.
func (m *Manager) Shutdown() {
	for _, name := range m.names {
		child := m.children[name]
		slog.Info("terminating child", slog.String("child", name))
		if err := child.Terminate(); err != nil {
			slog.Warn("error terminating child", slog.String("child", name), slog.String("error", err.Error()))
		}
		if err := child.Join(); err != nil {
			slog.Warn("error joining child", slog.String("child", name), slog.String("error", err.Error()))
		}
	}
}

func (m *Manager) nowOrDefault() float64 {
	if m.now != nil {
		return m.now()
	}
	return float64(nowUnix())
}
