package services

import (
	"context"
	"encoding/json"
	"testing"

	"panic-alerter/internal/alerter/alerts"
	"panic-alerter/pkg/broker"
	"panic-alerter/pkg/broker/brokertest"
)

func resultBody(systemID, parentID, systemName string, lastMonitored float64, cpuPrev, cpuCur *float64) []byte {
	type sample struct {
		Current  *float64 `json:"current"`
		Previous *float64 `json:"previous"`
	}
	type payload struct {
		Result struct {
			Data struct {
				SystemCPUUsage sample `json:"system_cpu_usage"`
				WentDownAt     sample `json:"went_down_at"`
			} `json:"data"`
			MetaData struct {
				SystemID       string  `json:"system_id"`
				SystemParentID string  `json:"system_parent_id"`
				SystemName     string  `json:"system_name"`
				LastMonitored  float64 `json:"last_monitored"`
			} `json:"meta_data"`
		} `json:"result"`
	}
	var p payload
	p.Result.Data.SystemCPUUsage = sample{Current: cpuCur, Previous: cpuPrev}
	p.Result.MetaData.SystemID = systemID
	p.Result.MetaData.SystemParentID = parentID
	p.Result.MetaData.SystemName = systemName
	p.Result.MetaData.LastMonitored = lastMonitored

	body, _ := json.Marshal(p)
	return body
}

func TestAlerter_HandleDelivery_ClassifiesAcksAndHeartbeats(t *testing.T) {
	cfg := testAlertsConfig()
	cfg.SystemCPUUsage = cpuSpec()

	fake := brokertest.NewFake()
	a := NewAlerter("system_alerter_cosmos", cfg, fake, 10)

	cpuPrev, cpuCur := ptr(60), ptr(85)
	body := resultBody("sys-1", "cosmos", "node-1", 1700000000, cpuPrev, cpuCur)

	delivery := broker.Delivery{Body: body, RoutingKey: "alerter.system.cosmos", DeliveryTag: 1}

	if err := a.handleDelivery(context.Background(), delivery); err != nil {
		t.Fatalf("handleDelivery: %v", err)
	}

	if len(fake.Acked) != 1 || fake.Acked[0] != 1 {
		t.Fatalf("Acked = %v, want [1]", fake.Acked)
	}

	if len(fake.Published) != 2 {
		t.Fatalf("Published = %d messages, want 2 (one alert + one heartbeat): %+v", len(fake.Published), fake.Published)
	}

	var decoded map[string]any
	if err := json.Unmarshal(fake.Published[0].Body, &decoded); err != nil {
		t.Fatalf("Unmarshal alert: %v", err)
	}
	if decoded["alert_code"] != string(alerts.CodeIncreasedAboveThreshold) {
		t.Errorf("alert_code = %v, want IncreasedAboveThreshold", decoded["alert_code"])
	}
	if fake.Published[0].RoutingKey != broker.AlertRouterRoutingKey {
		t.Errorf("routing key = %q, want %q", fake.Published[0].RoutingKey, broker.AlertRouterRoutingKey)
	}

	var hb heartbeatWire
	if err := json.Unmarshal(fake.Published[1].Body, &hb); err != nil {
		t.Fatalf("Unmarshal heartbeat: %v", err)
	}
	if hb.ComponentName != "system_alerter_cosmos" {
		t.Errorf("ComponentName = %q, want system_alerter_cosmos", hb.ComponentName)
	}
	if fake.Published[1].RoutingKey != broker.HeartbeatWorkerRoutingKey {
		t.Errorf("routing key = %q, want %q", fake.Published[1].RoutingKey, broker.HeartbeatWorkerRoutingKey)
	}
}

func TestAlerter_HandleDelivery_UnexpectedRoutingKeyStillAcksNoPublish(t *testing.T) {
	cfg := testAlertsConfig()
	fake := brokertest.NewFake()
	a := NewAlerter("system_alerter_cosmos", cfg, fake, 10)

	delivery := broker.Delivery{Body: []byte(`{}`), RoutingKey: "alerter.system.other-chain", DeliveryTag: 7}

	if err := a.handleDelivery(context.Background(), delivery); err != nil {
		t.Fatalf("handleDelivery: %v", err)
	}

	if len(fake.Acked) != 1 || fake.Acked[0] != 7 {
		t.Fatalf("Acked = %v, want [7]", fake.Acked)
	}
	if len(fake.Published) != 0 {
		t.Errorf("Published = %+v, want none", fake.Published)
	}
}

func TestAlerter_HandleDelivery_MalformedBodyAcksAndDropsSilently(t *testing.T) {
	cfg := testAlertsConfig()
	fake := brokertest.NewFake()
	a := NewAlerter("system_alerter_cosmos", cfg, fake, 10)

	delivery := broker.Delivery{Body: []byte(`{"neither_result_nor_error": true}`), RoutingKey: "alerter.system.cosmos", DeliveryTag: 3}

	if err := a.handleDelivery(context.Background(), delivery); err != nil {
		t.Fatalf("handleDelivery: %v", err)
	}
	if len(fake.Acked) != 1 {
		t.Fatalf("Acked = %v, want exactly one ack", fake.Acked)
	}
	if len(fake.Published) != 0 {
		t.Errorf("Published = %+v, want none for malformed input", fake.Published)
	}
}

func TestAlerter_HandleDelivery_NotDeliveredIsSwallowed(t *testing.T) {
	cfg := testAlertsConfig()
	cfg.SystemCPUUsage = cpuSpec()
	fake := brokertest.NewFake()
	fake.NextDeliverFails = true
	a := NewAlerter("system_alerter_cosmos", cfg, fake, 10)

	body := resultBody("sys-1", "cosmos", "node-1", 1700000000, ptr(60), ptr(85))
	delivery := broker.Delivery{Body: body, RoutingKey: "alerter.system.cosmos", DeliveryTag: 9}

	if err := a.handleDelivery(context.Background(), delivery); err != nil {
		t.Fatalf("handleDelivery should swallow a not-delivered publish error, got: %v", err)
	}
	if len(fake.Acked) != 1 {
		t.Fatalf("Acked = %v, want exactly one ack even on not-delivered", fake.Acked)
	}
}
