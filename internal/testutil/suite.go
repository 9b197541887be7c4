package testutil

import (
	"testing"

	platformconfig "github.com/cafoot/client/internal/platform/config"
)

// Setup returns a fresh configuration for one test. It never reads the
// process environment; tests modify their own copy and pass it to
// constructors.
func Setup(t testing.TB) *platformconfig.Config {
	t.Helper()

	cfg, err := platformconfig.LoadFromMap(map[string]string{
		"ACCOUNT_SERVICE_URL":     "http://127.0.0.1:1",
		"ACCOUNT_TIMEOUT":         "2s",
		"ACCOUNT_USER_AGENT":      "cafoot-client-test",
		"STORAGE_BACKEND":         "memory",
		"STORAGE_PATH":            "",
		"REGISTER_REDIRECT_DELAY": "10ms",
		"NOTIFICATION_TTL":        "1s",
	})
	if err != nil {
		t.Fatalf("test config: %v", err)
	}
	return cfg
}
