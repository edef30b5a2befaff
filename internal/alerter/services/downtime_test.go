package services

import (
	"testing"

	"panic-alerter/internal/alerter/alerts"
	"panic-alerter/internal/alerter/config"
)

func isDownSpec() config.ThresholdSpec {
	warning := 10.0
	critical := 20.0
	return config.ThresholdSpec{
		Enabled:           true,
		WarningEnabled:    true,
		CriticalEnabled:   true,
		WarningThreshold:  &warning,
		CriticalThreshold: &critical,
		CriticalRepeat:    300,
	}
}

// error 5004, went_down_at.current=1700000000,
// time=1700000030, critical_threshold=20 → downtime=30 >= 20 → WentDown(CRITICAL).
func TestProcessDowntimeError_Scenario5_WentDownCritical(t *testing.T) {
	state := newSystemState(testAlertsConfig())
	out := processDowntimeError(state, isDownSpec(), "node-1", 1700000000, 1700000030, "cosmos", "sys-1")

	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0].Code() != alerts.CodeWentDown || out[0].Severity() != alerts.SeverityCritical {
		t.Errorf("got %+v, want WentDown/CRITICAL", out[0])
	}
	if !state.InitialDowntimeAlertSent {
		t.Error("expected InitialDowntimeAlertSent = true")
	}
}

// Scenario 6: next tick at time=1700000700 (downtime=700) → StillDown(CRITICAL, 700).
func TestProcessDowntimeError_Scenario6_StillDown(t *testing.T) {
	state := newSystemState(testAlertsConfig())
	spec := isDownSpec()
	processDowntimeError(state, spec, "node-1", 1700000000, 1700000030, "cosmos", "sys-1")

	out := processDowntimeError(state, spec, "node-1", 1700000000, 1700000700, "cosmos", "sys-1")
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0].Code() != alerts.CodeStillDown {
		t.Errorf("Code() = %v, want StillDown", out[0].Code())
	}
	if out[0].Value() == nil || *out[0].Value() != 700 {
		t.Errorf("Value() = %v, want 700", out[0].Value())
	}
}

func TestProcessDowntimeError_RepeatSuppressedWithinCriticalRepeat(t *testing.T) {
	state := newSystemState(testAlertsConfig())
	spec := isDownSpec()
	processDowntimeError(state, spec, "node-1", 1700000000, 1700000030, "cosmos", "sys-1")

	// Only 60s later, well under the 300s critical_repeat: no repeat alert.
	out := processDowntimeError(state, spec, "node-1", 1700000000, 1700000090, "cosmos", "sys-1")
	if len(out) != 0 {
		t.Errorf("len(out) = %d, want 0 (suppressed by critical_repeat)", len(out))
	}
}

// Scenario 7: result with went_down_at.previous=1700000000 → BackUp(INFO);
// initial_sent resets to false; limiter resets.
func TestProcessDowntimeResult_Scenario7_BackUp(t *testing.T) {
	state := newSystemState(testAlertsConfig())
	spec := isDownSpec()
	processDowntimeError(state, spec, "node-1", 1700000000, 1700000030, "cosmos", "sys-1")

	previous := 1700000000.0
	out := processDowntimeResult(state, spec, "node-1", &previous, 1700000800, "cosmos", "sys-1")

	if len(out) != 1 || out[0].Code() != alerts.CodeBackUp || out[0].Severity() != alerts.SeverityInfo {
		t.Fatalf("got %+v, want one BackUp/INFO alert", out)
	}
	if state.InitialDowntimeAlertSent {
		t.Error("expected InitialDowntimeAlertSent = false after BackUp")
	}
	if !state.CriticalLimiters[LimiterIsDown].CanDo(timeFromUnix(1700000801)) {
		t.Error("expected the is_down limiter to be reset so CanDo is immediately true")
	}
}

func TestProcessDowntimeResult_NilPreviousEmitsNothing(t *testing.T) {
	state := newSystemState(testAlertsConfig())
	out := processDowntimeResult(state, isDownSpec(), "node-1", nil, 1700000800, "cosmos", "sys-1")
	if len(out) != 0 {
		t.Errorf("len(out) = %d, want 0 when went_down_at.previous is nil", len(out))
	}
}
