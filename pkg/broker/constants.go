package broker

import "fmt"

// Exchange names shared by every producer and consumer in the system.
// Both are durable, non-auto-delete topic exchanges.
const (
	AlertExchange       = "ALERT_EXCHANGE"
	HealthCheckExchange = "HEALTH_CHECK_EXCHANGE"
)

// Routing keys.
const (
	// AlertRouterRoutingKey is used by the System Alerter to republish
	// classified alerts for the downstream alert router.
	AlertRouterRoutingKey = "alert_router.system"

	// HeartbeatWorkerRoutingKey carries the System Alerter's own liveness
	// heartbeat, emitted after every successfully processed delivery.
	HeartbeatWorkerRoutingKey = "heartbeat.worker"

	// HeartbeatManagerRoutingKey carries the Transformer Manager's
	// liveness heartbeat, emitted in response to a ping.
	HeartbeatManagerRoutingKey = "heartbeat.manager"

	// PingRoutingKey is the routing key the Transformer Manager's ping
	// queue is bound to.
	PingRoutingKey = "ping"
)

// PingQueueName is the Transformer Manager's fixed input queue.
const PingQueueName = "data_transformers_manager_queue"

// AlerterRoutingKey is the per-parent-id routing key a System Alerter
// subscribes to on ALERT_EXCHANGE.
func AlerterRoutingKey(parentID string) string {
	return fmt.Sprintf("alerter.system.%s", parentID)
}

// SystemAlerterQueueName is the per-parent-id durable queue name a
// System Alerter declares for itself.
func SystemAlerterQueueName(parentID string) string {
	return fmt.Sprintf("system_alerter_queue_%s", parentID)
}
