package services

import (
	"context"
	"encoding/json"
	"testing"

	"panic-alerter/pkg/broker"
	"panic-alerter/pkg/broker/brokertest"
)

func TestManager_EnsureStarted_StartsAbsentChildren(t *testing.T) {
	fake := brokertest.NewFake()
	sys := NewFakeChildHandle()
	gh := NewFakeChildHandle()
	m := New("transformer_manager", fake, map[string]ChildHandle{
		"system_data_transformer": sys,
		"github_data_transformer": gh,
	})

	if err := m.EnsureStarted(); err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if sys.StartCount() != 1 || gh.StartCount() != 1 {
		t.Fatalf("StartCount = %d/%d, want 1/1", sys.StartCount(), gh.StartCount())
	}

	// Already alive: a second call must not restart them.
	if err := m.EnsureStarted(); err != nil {
		t.Fatalf("EnsureStarted (second): %v", err)
	}
	if sys.StartCount() != 1 || gh.StartCount() != 1 {
		t.Errorf("StartCount = %d/%d after second EnsureStarted, want still 1/1", sys.StartCount(), gh.StartCount())
	}
}

// After terminate()ing a child externally, the next ping yields a
// heartbeat listing it under dead and restarts it, and a subsequent
// ping yields it under running.
func TestManager_HandlePing_DetectsDeadChildAndRestarts(t *testing.T) {
	fake := brokertest.NewFake()
	sys := NewFakeChildHandle()
	gh := NewFakeChildHandle()
	m := New("transformer_manager", fake, map[string]ChildHandle{
		"system_data_transformer": sys,
		"github_data_transformer": gh,
	})
	if err := m.EnsureStarted(); err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}

	// Simulate an external termination of one child.
	if err := sys.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}

	if err := m.handlePing(context.Background()); err != nil {
		t.Fatalf("handlePing: %v", err)
	}

	if len(fake.Published) != 1 {
		t.Fatalf("Published = %d, want 1", len(fake.Published))
	}
	var hb heartbeatWire
	if err := json.Unmarshal(fake.Published[0].Body, &hb); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(hb.Dead) != 1 || hb.Dead[0] != "system_data_transformer" {
		t.Errorf("Dead = %v, want [system_data_transformer]", hb.Dead)
	}
	if len(hb.Running) != 1 || hb.Running[0] != "github_data_transformer" {
		t.Errorf("Running = %v, want [github_data_transformer]", hb.Running)
	}
	if sys.StartCount() != 2 {
		t.Errorf("StartCount = %d, want 2 (restarted after being found dead)", sys.StartCount())
	}

	// The restarted child is now alive, so a subsequent ping shows it
	// running.
	if err := m.handlePing(context.Background()); err != nil {
		t.Fatalf("handlePing (second): %v", err)
	}
	var hb2 heartbeatWire
	if err := json.Unmarshal(fake.Published[1].Body, &hb2); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(hb2.Dead) != 0 {
		t.Errorf("Dead = %v, want none on the second ping", hb2.Dead)
	}
	if len(hb2.Running) != 2 {
		t.Errorf("Running = %v, want both children", hb2.Running)
	}
}

func TestManager_Shutdown_TerminatesAndJoinsEveryChild(t *testing.T) {
	fake := brokertest.NewFake()
	sys := NewFakeChildHandle()
	gh := NewFakeChildHandle()
	m := New("transformer_manager", fake, map[string]ChildHandle{
		"system_data_transformer": sys,
		"github_data_transformer": gh,
	})
	m.EnsureStarted()

	m.Shutdown()

	if sys.IsAlive() || gh.IsAlive() {
		t.Error("expected both children to be terminated")
	}
	if !sys.joined || !gh.joined {
		t.Error("expected both children to be joined")
	}
}

func TestManager_HandlePing_NotDeliveredIsSwallowed(t *testing.T) {
	fake := brokertest.NewFake()
	fake.NextDeliverFails = true
	sys := NewFakeChildHandle()
	m := New("transformer_manager", fake, map[string]ChildHandle{"system_data_transformer": sys})
	m.EnsureStarted()

	if err := m.handlePing(context.Background()); err != nil {
		t.Fatalf("handlePing should swallow a not-delivered heartbeat, got: %v", err)
	}
}

var _ broker.Broker = (*brokertest.Fake)(nil)
