// Package env keeps names of environment variables with special significance to
// guictl.
package env

// Environment variables with special significance to guictl.
//
// Note that some of these env vars may be significant only in special
// circumstances, such as when running unit tests.
const (
	// Scales all timeouts in tests.
	GUICTL_TEST_TIME_SCALE = "GUICTL_TEST_TIME_SCALE"
	// Default address for -serve and -demo when -addr is not given.
	GUICTL_ADDR = "GUICTL_ADDR"
	// Default path of the host configuration file.
	GUICTL_CONFIG = "GUICTL_CONFIG"
)
