package services

import "time"

// nowUnix returns the current time as Unix seconds, isolated behind a
// function so heartbeat timestamps can be stubbed in tests via
// Manager.now.
func nowUnix() int64 {
	return time.Now().Unix()
}
