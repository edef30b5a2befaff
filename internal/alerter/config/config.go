// Package config normalizes the stringly-typed alerts configuration
// into a typed, validated AlertsConfig. Dynamic config carrying
// "true"/"false" strings and stringified numbers is normalized once on
// load into enumerated threshold specs.
package config

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// RawThresholdSpec is the stringly-typed shape the upstream config loader
// hands to the alerter.
type RawThresholdSpec struct {
	Enabled           string
	WarningEnabled    string
	CriticalEnabled   string
	WarningThreshold  string
	CriticalThreshold string
	CriticalRepeat    string
}

// RawAlertsConfig is the as-loaded configuration for one monitored group.
type RawAlertsConfig struct {
	ParentID              string
	OpenFileDescriptors   RawThresholdSpec
	SystemCPUUsage        RawThresholdSpec
	SystemStorageUsage    RawThresholdSpec
	SystemRAMUsage        RawThresholdSpec
	SystemIsDown          RawThresholdSpec
}

// ThresholdSpec is a normalized, typed threshold configuration for one
// metric.
type ThresholdSpec struct {
	Enabled           bool `validate:"-"`
	WarningEnabled    bool `validate:"-"`
	CriticalEnabled   bool `validate:"-"`
	WarningThreshold  *float64 `validate:"omitempty"`
	CriticalThreshold *float64 `validate:"omitempty"`
	// CriticalRepeat is a duration in seconds; must be positive once
	// the threshold spec is enabled.
	CriticalRepeat int `validate:"required_if=Enabled true,omitempty,gt=0"`
}

// AlertsConfig is the normalized, validated configuration for one
// monitored group.
type AlertsConfig struct {
	ParentID string `validate:"required"`

	OpenFileDescriptors ThresholdSpec
	SystemCPUUsage      ThresholdSpec
	SystemStorageUsage  ThresholdSpec
	SystemRAMUsage      ThresholdSpec
	SystemIsDown        ThresholdSpec
}

func parseThreshold(raw RawThresholdSpec, name string) (ThresholdSpec, error) {
	enabled, err := strconv.ParseBool(orDefault(raw.Enabled, "false"))
	if err != nil {
		return ThresholdSpec{}, fmt.Errorf("%s: enabled: %w", name, err)
	}
	warningEnabled, err := strconv.ParseBool(orDefault(raw.WarningEnabled, "false"))
	if err != nil {
		return ThresholdSpec{}, fmt.Errorf("%s: warning_enabled: %w", name, err)
	}
	criticalEnabled, err := strconv.ParseBool(orDefault(raw.CriticalEnabled, "false"))
	if err != nil {
		return ThresholdSpec{}, fmt.Errorf("%s: critical_enabled: %w", name, err)
	}

	warningThreshold, err := parseOptionalFloat(raw.WarningThreshold)
	if err != nil {
		return ThresholdSpec{}, fmt.Errorf("%s: warning_threshold: %w", name, err)
	}
	criticalThreshold, err := parseOptionalFloat(raw.CriticalThreshold)
	if err != nil {
		return ThresholdSpec{}, fmt.Errorf("%s: critical_threshold: %w", name, err)
	}

	repeat := 0
	if raw.CriticalRepeat != "" {
		repeat, err = strconv.Atoi(raw.CriticalRepeat)
		if err != nil {
			return ThresholdSpec{}, fmt.Errorf("%s: critical_repeat: %w", name, err)
		}
	}

	return ThresholdSpec{
		Enabled:           enabled,
		WarningEnabled:    warningEnabled,
		CriticalEnabled:   criticalEnabled,
		WarningThreshold:  warningThreshold,
		CriticalThreshold: criticalThreshold,
		CriticalRepeat:    repeat,
	}, nil
}

func parseOptionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Normalize converts a RawAlertsConfig into a validated AlertsConfig.
func Normalize(raw RawAlertsConfig) (AlertsConfig, error) {
	var cfg AlertsConfig
	cfg.ParentID = raw.ParentID

	specs := []struct {
		name string
		raw  RawThresholdSpec
		dst  *ThresholdSpec
	}{
		{"open_file_descriptors", raw.OpenFileDescriptors, &cfg.OpenFileDescriptors},
		{"system_cpu_usage", raw.SystemCPUUsage, &cfg.SystemCPUUsage},
		{"system_storage_usage", raw.SystemStorageUsage, &cfg.SystemStorageUsage},
		{"system_ram_usage", raw.SystemRAMUsage, &cfg.SystemRAMUsage},
		{"system_is_down", raw.SystemIsDown, &cfg.SystemIsDown},
	}

	for _, s := range specs {
		parsed, err := parseThreshold(s.raw, s.name)
		if err != nil {
			return AlertsConfig{}, err
		}
		*s.dst = parsed
	}

	if err := validator.New().Struct(cfg); err != nil {
		return AlertsConfig{}, fmt.Errorf("validating alerts config: %w", err)
	}

	return cfg, nil
}
