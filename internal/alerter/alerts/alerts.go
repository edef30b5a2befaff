// Package alerts defines the immutable alert value objects the System
// Alerter emits.
package alerts

import (
	"encoding/json"
	"fmt"
)

// Severity is the urgency level carried on every outbound alert.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
	SeverityError    Severity = "ERROR"
)

// Metric identifies which monitored quantity an alert concerns. These
// are the same five names used as AlertsConfig keys.
type Metric string

const (
	MetricOpenFileDescriptors Metric = "open_file_descriptors"
	MetricCPUUsage            Metric = "system_cpu_usage"
	MetricStorageUsage        Metric = "system_storage_usage"
	MetricRAMUsage            Metric = "system_ram_usage"
	MetricIsDown              Metric = "system_is_down"
)

// Code is the "kind" discriminator carried over the wire as alert_code.
type Code string

const (
	CodeWentDown               Code = "WentDown"
	CodeStillDown              Code = "StillDown"
	CodeBackUp                 Code = "BackUp"
	CodeIncreasedAboveThreshold Code = "IncreasedAboveThreshold"
	CodeDecreasedBelowThreshold Code = "DecreasedBelowThreshold"
	CodeMetricNotFound          Code = "MetricNotFound"
	CodeInvalidURL              Code = "InvalidUrl"
)

// Alert is an immutable outbound alert record. Construct one with the
// New* functions below; there is no exported way to mutate a value once
// built.
type Alert struct {
	severity  Severity
	message   string
	timestamp float64
	parentID  string
	originID  string
	code      Code
	metric    Metric
	value     *float64
}

func (a Alert) Severity() Severity  { return a.severity }
func (a Alert) Message() string     { return a.message }
func (a Alert) Timestamp() float64  { return a.timestamp }
func (a Alert) ParentID() string    { return a.parentID }
func (a Alert) OriginID() string    { return a.originID }
func (a Alert) Code() Code          { return a.code }
func (a Alert) Metric() Metric      { return a.metric }
func (a Alert) Value() *float64     { return a.value }

// wireAlert mirrors the outgoing alert schema field-for-field; field
// names are a compatibility contract with the downstream router and
// must not change.
type wireAlert struct {
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Timestamp float64  `json:"timestamp"`
	ParentID  string   `json:"parent_id"`
	OriginID  string   `json:"origin_id"`
	AlertCode Code     `json:"alert_code"`
	Metric    Metric   `json:"metric,omitempty"`
	Value     *float64 `json:"value,omitempty"`
}

// MarshalJSON renders the alert in the exact downstream-router schema.
func (a Alert) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireAlert{
		Severity:  a.severity,
		Message:   a.message,
		Timestamp: a.timestamp,
		ParentID:  a.parentID,
		OriginID:  a.originID,
		AlertCode: a.code,
		Metric:    a.metric,
		Value:     a.value,
	})
}

// NewWentDown reports a system crossing a downtime threshold for the
// first time in an outage.
func NewWentDown(severity Severity, systemName string, timestamp float64, parentID, systemID string) Alert {
	return Alert{
		severity:  severity,
		message:   fmt.Sprintf("%s is experiencing downtime", systemName),
		timestamp: timestamp,
		parentID:  parentID,
		originID:  systemID,
		code:      CodeWentDown,
		metric:    MetricIsDown,
	}
}

// NewStillDown reports a repeat critical downtime observation gated by
// the is_down critical-repeat limiter.
func NewStillDown(systemName string, downtimeSeconds float64, timestamp float64, parentID, systemID string) Alert {
	v := downtimeSeconds
	return Alert{
		severity:  SeverityCritical,
		message:   fmt.Sprintf("%s is still down, down for %.0f seconds", systemName, downtimeSeconds),
		timestamp: timestamp,
		parentID:  parentID,
		originID:  systemID,
		code:      CodeStillDown,
		metric:    MetricIsDown,
		value:     &v,
	}
}

// NewBackUp reports a system's return to reachability.
func NewBackUp(systemName string, timestamp float64, parentID, systemID string) Alert {
	return Alert{
		severity:  SeverityInfo,
		message:   fmt.Sprintf("%s is now back up", systemName),
		timestamp: timestamp,
		parentID:  parentID,
		originID:  systemID,
		code:      CodeBackUp,
		metric:    MetricIsDown,
	}
}

// NewIncreasedAboveThreshold reports a metric crossing above a warning
// or critical threshold. level names which threshold was crossed
// ("WARNING" or "CRITICAL") independent of the alert's severity.
func NewIncreasedAboveThreshold(metric Metric, systemName string, value float64, severity Severity, level string, timestamp float64, parentID, systemID string) Alert {
	v := value
	return Alert{
		severity:  severity,
		message:   fmt.Sprintf("%s %s increased above %s threshold, now %.2f", systemName, metric, level, value),
		timestamp: timestamp,
		parentID:  parentID,
		originID:  systemID,
		code:      CodeIncreasedAboveThreshold,
		metric:    metric,
		value:     &v,
	}
}

// NewDecreasedBelowThreshold reports a metric dropping back below a
// threshold it had previously crossed; these are always severity INFO.
func NewDecreasedBelowThreshold(metric Metric, systemName string, value float64, level string, timestamp float64, parentID, systemID string) Alert {
	v := value
	return Alert{
		severity:  SeverityInfo,
		message:   fmt.Sprintf("%s %s decreased below %s threshold, now %.2f", systemName, metric, level, value),
		timestamp: timestamp,
		parentID:  parentID,
		originID:  systemID,
		code:      CodeDecreasedBelowThreshold,
		metric:    metric,
		value:     &v,
	}
}

// NewMetricNotFound reports error code 5003.
func NewMetricNotFound(message string, timestamp float64, parentID, systemID string) Alert {
	return Alert{
		severity:  SeverityError,
		message:   message,
		timestamp: timestamp,
		parentID:  parentID,
		originID:  systemID,
		code:      CodeMetricNotFound,
	}
}

// NewInvalidURL reports error code 5009.
func NewInvalidURL(message string, timestamp float64, parentID, systemID string) Alert {
	return Alert{
		severity:  SeverityError,
		message:   message,
		timestamp: timestamp,
		parentID:  parentID,
		originID:  systemID,
		code:      CodeInvalidURL,
	}
}
