package services

import (
	"panic-alerter/internal/alerter/alerts"
	"panic-alerter/internal/alerter/config"
)

// Error codes recognized by the error path.
const (
	ErrorCodeMetricNotFound  = 5003
	ErrorCodeInvalidURL      = 5009
	ErrorCodeSystemUnreachable = 5004
)

// ProcessError dispatches a decoded error message to the appropriate
// alert. Any code other than 5003/5009/5004 is silently dropped.
func ProcessError(state *SystemState, isDown config.ThresholdSpec, e DecodedError) []alerts.Alert {
	switch e.Code {
	case ErrorCodeMetricNotFound:
		return []alerts.Alert{alerts.NewMetricNotFound(e.Message, e.Time, e.SystemParentID, e.SystemID)}
	case ErrorCodeInvalidURL:
		return []alerts.Alert{alerts.NewInvalidURL(e.Message, e.Time, e.SystemParentID, e.SystemID)}
	case ErrorCodeSystemUnreachable:
		if e.WentDownAt.Current == nil {
			return nil
		}
		return processDowntimeError(state, isDown, e.SystemName, *e.WentDownAt.Current, e.Time, e.SystemParentID, e.SystemID)
	default:
		return nil
	}
}
