package services

import (
	"time"

	"panic-alerter/internal/alerter/config"
)

// testAlertsConfig returns a fully-populated AlertsConfig suitable as the
// basis for newSystemState in tests; individual ThresholdSpec values are
// overridden per-test where needed.
func testAlertsConfig() config.AlertsConfig {
	repeat := func(seconds int) config.ThresholdSpec {
		return config.ThresholdSpec{CriticalRepeat: seconds}
	}
	return config.AlertsConfig{
		ParentID:            "cosmos",
		OpenFileDescriptors: repeat(600),
		SystemCPUUsage:      repeat(600),
		SystemStorageUsage:  repeat(600),
		SystemRAMUsage:      repeat(600),
		SystemIsDown:        repeat(300),
	}
}

func timeFromUnix(seconds float64) time.Time {
	return time.Unix(int64(seconds), 0)
}
