package services

import (
	"time"

	"panic-alerter/internal/alerter/alerts"
	"panic-alerter/internal/alerter/config"
)

// processDowntimeError runs the downtime state machine's error-5004 arm.
// wentDownAt is the timestamp the system first failed; monitoringTime
// is the instant this error was observed; downtime is their difference.
func processDowntimeError(state *SystemState, cfg config.ThresholdSpec, systemName string, wentDownAt, monitoringTime float64, parentID, systemID string) []alerts.Alert {
	if !cfg.Enabled {
		return nil
	}

	downtime := monitoringTime - wentDownAt
	limiter := state.CriticalLimiters[LimiterIsDown]
	monitoringInstant := time.Unix(int64(monitoringTime), 0)

	criticalThreshold := thresholdOrZero(cfg.CriticalThreshold)
	warningThreshold := thresholdOrZero(cfg.WarningThreshold)

	var out []alerts.Alert

	if !state.InitialDowntimeAlertSent {
		switch {
		case cfg.CriticalEnabled && downtime >= criticalThreshold:
			out = append(out, alerts.NewWentDown(alerts.SeverityCritical, systemName, monitoringTime, parentID, systemID))
			limiter.Record(monitoringInstant)
			state.InitialDowntimeAlertSent = true
		case cfg.WarningEnabled && downtime >= warningThreshold:
			out = append(out, alerts.NewWentDown(alerts.SeverityWarning, systemName, monitoringTime, parentID, systemID))
			limiter.Record(monitoringInstant)
			state.InitialDowntimeAlertSent = true
		}
		return out
	}

	// Already down: critical dominates and is the only repeat path;
	// there is no warning-side repeat.
	if cfg.CriticalEnabled && limiter.CanDo(monitoringInstant) {
		out = append(out, alerts.NewStillDown(systemName, downtime, monitoringTime, parentID, systemID))
		limiter.Record(monitoringInstant)
	}
	return out
}

// processDowntimeResult runs the result-path arm of the downtime state
// machine: a BackUp transition whenever went_down_at.previous is
// non-null, regardless of the current sample.
func processDowntimeResult(state *SystemState, cfg config.ThresholdSpec, systemName string, wentDownAtPrevious *float64, lastMonitored float64, parentID, systemID string) []alerts.Alert {
	if !cfg.Enabled || wentDownAtPrevious == nil {
		return nil
	}

	alert := alerts.NewBackUp(systemName, lastMonitored, parentID, systemID)
	state.InitialDowntimeAlertSent = false
	state.CriticalLimiters[LimiterIsDown].Reset()
	return []alerts.Alert{alert}
}

func thresholdOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
