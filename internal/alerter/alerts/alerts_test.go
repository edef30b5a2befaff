package alerts

import (
	"encoding/json"
	"testing"
)

func TestMarshalJSON_IncreasedAboveThreshold(t *testing.T) {
	a := NewIncreasedAboveThreshold(MetricCPUUsage, "node-1", 95.0, SeverityCritical, "CRITICAL", 1700000050, "cosmos", "sys-1")

	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	wantKeys := []string{"severity", "message", "timestamp", "parent_id", "origin_id", "alert_code", "metric", "value"}
	for _, k := range wantKeys {
		if _, ok := decoded[k]; !ok {
			t.Errorf("expected key %q in wire payload, got %v", k, decoded)
		}
	}

	if decoded["severity"] != "CRITICAL" {
		t.Errorf("severity = %v, want CRITICAL", decoded["severity"])
	}
	if decoded["origin_id"] != "sys-1" {
		t.Errorf("origin_id = %v, want sys-1", decoded["origin_id"])
	}
	if decoded["parent_id"] != "cosmos" {
		t.Errorf("parent_id = %v, want cosmos", decoded["parent_id"])
	}
	if decoded["alert_code"] != string(CodeIncreasedAboveThreshold) {
		t.Errorf("alert_code = %v, want %v", decoded["alert_code"], CodeIncreasedAboveThreshold)
	}
	if decoded["value"] != 95.0 {
		t.Errorf("value = %v, want 95.0", decoded["value"])
	}
}

func TestMarshalJSON_WentDownOmitsValue(t *testing.T) {
	a := NewWentDown(SeverityCritical, "node-1", 1700000030, "cosmos", "sys-1")

	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if _, ok := decoded["value"]; ok {
		t.Errorf("expected no value field on a WentDown alert, got %v", decoded["value"])
	}
	if decoded["alert_code"] != string(CodeWentDown) {
		t.Errorf("alert_code = %v, want %v", decoded["alert_code"], CodeWentDown)
	}
}

func TestMarshalJSON_StillDownCarriesDowntimeValue(t *testing.T) {
	a := NewStillDown("node-1", 700, 1700000700, "cosmos", "sys-1")

	raw, _ := json.Marshal(a)
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded["value"] != 700.0 {
		t.Errorf("value = %v, want 700", decoded["value"])
	}
}

func TestAccessors(t *testing.T) {
	a := NewBackUp("node-1", 1700000800, "cosmos", "sys-1")

	if a.Severity() != SeverityInfo {
		t.Errorf("Severity() = %v, want INFO", a.Severity())
	}
	if a.Code() != CodeBackUp {
		t.Errorf("Code() = %v, want BackUp", a.Code())
	}
	if a.OriginID() != "sys-1" {
		t.Errorf("OriginID() = %v, want sys-1", a.OriginID())
	}
	if a.Value() != nil {
		t.Errorf("Value() = %v, want nil", a.Value())
	}
}
