// Package services implements the System Alerter: per-entity threshold
// state, message decoding, classification, downtime tracking, and the
// bounded publishing buffer.
package services

import (
	"time"

	"panic-alerter/internal/alerter/config"
	"panic-alerter/internal/alerter/ratelimiter"
)

// Metric names used as keys into a SystemState's critical limiter map.
const (
	LimiterOpenFD   = "open_file_descriptors"
	LimiterCPUUse   = "system_cpu_usage"
	LimiterStorage  = "system_storage_usage"
	LimiterRAMUse   = "system_ram_usage"
	LimiterIsDown   = "system_is_down"
)

// SystemState is the per-system_id mutable state: whether the initial
// downtime alert for an ongoing outage has been sent, and one
// critical-repeat rate limiter per metric. It is owned exclusively by
// the single-goroutine ingestion loop; no synchronization is provided
// or required.
type SystemState struct {
	InitialDowntimeAlertSent bool
	CriticalLimiters         map[string]*ratelimiter.RateLimiter
}

func newSystemState(cfg config.AlertsConfig) *SystemState {
	return &SystemState{
		CriticalLimiters: map[string]*ratelimiter.RateLimiter{
			LimiterOpenFD:  ratelimiter.New(time.Duration(cfg.OpenFileDescriptors.CriticalRepeat) * time.Second),
			LimiterCPUUse:  ratelimiter.New(time.Duration(cfg.SystemCPUUsage.CriticalRepeat) * time.Second),
			LimiterStorage: ratelimiter.New(time.Duration(cfg.SystemStorageUsage.CriticalRepeat) * time.Second),
			LimiterRAMUse:  ratelimiter.New(time.Duration(cfg.SystemRAMUsage.CriticalRepeat) * time.Second),
			LimiterIsDown:  ratelimiter.New(time.Duration(cfg.SystemIsDown.CriticalRepeat) * time.Second),
		},
	}
}

// StateRegistry lazily materializes and retains one SystemState per
// system_id for the process lifetime: at most one SystemState exists
// per system_id.
type StateRegistry struct {
	cfg    config.AlertsConfig
	states map[string]*SystemState
}

// NewStateRegistry returns a registry that builds each system's rate
// limiters from cfg's critical_repeat durations.
func NewStateRegistry(cfg config.AlertsConfig) *StateRegistry {
	return &StateRegistry{cfg: cfg, states: make(map[string]*SystemState)}
}

// Get returns the SystemState for systemID, creating it on first
// observation.
func (r *StateRegistry) Get(systemID string) *SystemState {
	s, ok := r.states[systemID]
	if !ok {
		s = newSystemState(r.cfg)
		r.states[systemID] = s
	}
	return s
}
