// Package testutil contains common test utilities.
package testutil

import (
	"os"
	"strconv"
	"time"

	"src.guictl.dev/pkg/env"
)

// Cleanuper wraps the Cleanup method. It is a subset of [testing.TB], thus
// satisfied by [*testing.T] and [*testing.B].
type Cleanuper interface {
	Cleanup(func())
}

// Scaled returns d scaled by $GUICTL_TEST_TIME_SCALE. If the environment
// variable does not exist or contains an invalid value, the scale defaults to
// 1.
func Scaled(d time.Duration) time.Duration {
	return time.Duration(float64(d) * getTestTimeScale())
}

func getTestTimeScale() float64 {
	env := os.Getenv(env.GUICTL_TEST_TIME_SCALE)
	if env == "" {
		return 1
	}
	scale, err := strconv.ParseFloat(env, 64)
	if err != nil || scale <= 0 {
		return 1
	}
	return scale
}

// Set sets *p to v, and restores the original value in a cleanup function.
func Set[T any](c Cleanuper, p *T, v T) {
	old := *p
	*p = v
	c.Cleanup(func() { *p = old })
}

// Setenv sets the value of an environment variable for the duration of a
// test.
func Setenv(c Cleanuper, name, value string) {
	old, existed := os.LookupEnv(name)
	os.Setenv(name, value)
	c.Cleanup(func() {
		if existed {
			os.Setenv(name, old)
		} else {
			os.Unsetenv(name)
		}
	})
}

// Eventually polls cond every 5ms (scaled) until it returns true or timeout
// (scaled) has elapsed. It returns the last result of cond.
func Eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(Scaled(timeout))
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(Scaled(5 * time.Millisecond))
	}
}
