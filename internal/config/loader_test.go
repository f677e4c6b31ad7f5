package config

import (
	"os"
	"strings"
	"testing"
)

func TestLoaderParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		for _, key := range []string{"SCHEDULER_HTTP_PORT", "SCHEDULER_SQLITE_DSN", "SCHEDULER_TIMEZONE"} {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:scheduler.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.Timezone == nil || cfg.Timezone.String() != "Asia/Makassar" {
			t.Fatalf("unexpected default timezone: %v", cfg.Timezone)
		}
	})

	t.Run("reads overrides from the environment", func(t *testing.T) {
		t.Setenv("SCHEDULER_HTTP_PORT", "9090")
		t.Setenv("SCHEDULER_SQLITE_DSN", "file:campus.db")
		t.Setenv("SCHEDULER_TIMEZONE", "Asia/Jakarta")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 9090 {
			t.Fatalf("port = %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:campus.db" {
			t.Fatalf("dsn = %q", cfg.SQLiteDSN)
		}
		if cfg.Timezone.String() != "Asia/Jakarta" {
			t.Fatalf("timezone = %v", cfg.Timezone)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		t.Setenv("SCHEDULER_HTTP_PORT", "-1")
		t.Setenv("SCHEDULER_TIMEZONE", "Mars/Olympus")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for invalid values")
		}
		for _, key := range []string{"SCHEDULER_HTTP_PORT", "SCHEDULER_TIMEZONE"} {
			if !strings.Contains(err.Error(), key) {
				t.Errorf("error %q does not name %s", err, key)
			}
		}
	})
}
