package services

import (
	"time"

	"panic-alerter/internal/alerter/alerts"
	"panic-alerter/internal/alerter/config"
)

// classifyMetric applies warning/critical edge-triggered threshold
// logic to one metric's (previous, current) sample pair. limiterName
// selects which of state's critical rate limiters gates repeat
// CRITICAL alerts.
func classifyMetric(state *SystemState, cfg config.ThresholdSpec, metric alerts.Metric, systemName string, previous, current, lastMonitored float64, limiterName string, parentID, systemID string) []alerts.Alert {
	var out []alerts.Alert

	warning := thresholdOrZero(cfg.WarningThreshold)
	critical := thresholdOrZero(cfg.CriticalThreshold)
	limiter := state.CriticalLimiters[limiterName]
	monitoringInstant := time.Unix(int64(lastMonitored), 0)

	if cfg.WarningEnabled {
		switch {
		case warning <= current && current < critical && !(warning <= previous):
			out = append(out, alerts.NewIncreasedAboveThreshold(metric, systemName, current, alerts.SeverityWarning, "WARNING", lastMonitored, parentID, systemID))
		case current < warning && warning <= previous:
			out = append(out, alerts.NewDecreasedBelowThreshold(metric, systemName, current, "WARNING", lastMonitored, parentID, systemID))
		}
	}

	if cfg.CriticalEnabled {
		switch {
		case current >= critical && limiter.CanDo(monitoringInstant):
			out = append(out, alerts.NewIncreasedAboveThreshold(metric, systemName, current, alerts.SeverityCritical, "CRITICAL", lastMonitored, parentID, systemID))
			limiter.Record(monitoringInstant)
		case warning < current && current < critical && critical <= previous:
			out = append(out, alerts.NewDecreasedBelowThreshold(metric, systemName, current, "CRITICAL", lastMonitored, parentID, systemID))
			limiter.Reset()
		}
	}

	return out
}

// ResultMetrics holds the current/previous sample pairs decoded from an
// incoming result message.
type ResultMetrics struct {
	OpenFileDescriptors Sample
	SystemCPUUsage      Sample
	SystemStorageUsage  Sample
	SystemRAMUsage      Sample
	WentDownAt          Sample
}

// Sample is a {current, previous} numeric pair; either field may be
// absent (nil), matching the nullable wire values.
type Sample struct {
	Current  *float64
	Previous *float64
}

// ResultMeta is the meta_data accompanying a result message.
type ResultMeta struct {
	SystemID       string
	SystemParentID string
	SystemName     string
	LastMonitored  float64
}

// ProcessResult runs the full result-path classification plus the
// downtime result arm. Skips a metric when current is null or
// unchanged from previous.
func ProcessResult(state *SystemState, cfg config.AlertsConfig, meta ResultMeta, metrics ResultMetrics) []alerts.Alert {
	var out []alerts.Alert

	out = append(out, processDowntimeResult(state, cfg.SystemIsDown, meta.SystemName, metrics.WentDownAt.Previous, meta.LastMonitored, meta.SystemParentID, meta.SystemID)...)

	type metricRun struct {
		metric  alerts.Metric
		cfg     config.ThresholdSpec
		sample  Sample
		limiter string
	}

	runs := []metricRun{
		{alerts.MetricOpenFileDescriptors, cfg.OpenFileDescriptors, metrics.OpenFileDescriptors, LimiterOpenFD},
		{alerts.MetricStorageUsage, cfg.SystemStorageUsage, metrics.SystemStorageUsage, LimiterStorage},
		{alerts.MetricCPUUsage, cfg.SystemCPUUsage, metrics.SystemCPUUsage, LimiterCPUUse},
		// RAM is classified against its own threshold config, not CPU's.
		{alerts.MetricRAMUsage, cfg.SystemRAMUsage, metrics.SystemRAMUsage, LimiterRAMUse},
	}

	for _, r := range runs {
		if !r.cfg.Enabled {
			continue
		}
		if r.sample.Current == nil || (r.sample.Previous != nil && *r.sample.Current == *r.sample.Previous) {
			continue
		}
		previous := 0.0
		if r.sample.Previous != nil {
			previous = *r.sample.Previous
		}
		out = append(out, classifyMetric(state, r.cfg, r.metric, meta.SystemName, previous, *r.sample.Current, meta.LastMonitored, r.limiter, meta.SystemParentID, meta.SystemID)...)
	}

	return out
}
