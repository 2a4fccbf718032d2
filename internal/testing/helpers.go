// Package testing classifies tests that touch the real file system poller
// or external services so they can be skipped in fast runs.
package testing

import (
	"os"
	"testing"
)

// Environment switches read by the helpers.
const (
	EnvUnitOnly = "AUTOLOG_UNIT_TESTS_ONLY"
	EnvNATSURL  = "AUTOLOG_TEST_NATS_URL"
)

// Unit reports whether only fast, self-contained tests should run: when
// -short is set or AUTOLOG_UNIT_TESTS_ONLY=true.
func Unit() bool {
	if os.Getenv(EnvUnitOnly) == "true" {
		return true
	}
	return testing.Short()
}

// Integration reports whether slower tests may run.
func Integration() bool {
	return !Unit()
}

// SkipIfUnit skips the test in unit mode.
func SkipIfUnit(t *testing.T, message ...string) {
	t.Helper()
	if Unit() {
		msg := "Skipping integration test in unit mode"
		if len(message) > 0 {
			msg = message[0]
		}
		t.Skip(msg)
	}
}

// NATSURL returns the nats:// URI of a live server for integration tests,
// skipping the test when none is configured or in unit mode.
func NATSURL(t *testing.T) string {
	t.Helper()
	SkipIfUnit(t, "Skipping NATS integration test in unit mode")
	url := os.Getenv(EnvNATSURL)
	if url == "" {
		t.Skip("Set " + EnvNATSURL + " to run against a NATS server")
	}
	return url
}
