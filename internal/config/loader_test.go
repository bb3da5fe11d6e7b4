package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"BLOCKCAL_CONFIG_FILE",
	"BLOCKCAL_HTTP_PORT",
	"BLOCKCAL_SQLITE_DSN",
	"BLOCKCAL_CACHE_FILE",
	"BLOCKCAL_USER_ID",
	"BLOCKCAL_TIMEZONE",
	"BLOCKCAL_WEEK_START",
	"BLOCKCAL_SYNC_SCHEDULE",
	"BLOCKCAL_EXPORT_NAME",
	"BLOCKCAL_AUTH_USER",
	"BLOCKCAL_AUTH_PASSWORD_HASH",
	"BLOCKCAL_PIXELS_PER_HOUR",
	"BLOCKCAL_VIEW_CACHE_TTL",
	"BLOCKCAL_MAX_WINDOW_DAYS",
}

// clearEnv blanks every variable for the duration of the test. An empty
// value is treated the same as an unset one.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "blockcal.db" || cfg.CacheFile != "blockcal-cache.json" {
			t.Fatalf("unexpected default storage paths: %q %q", cfg.SQLiteDSN, cfg.CacheFile)
		}
		if cfg.SyncSchedule != "@every 30s" || cfg.ViewCacheTTL != 30*time.Second {
			t.Fatalf("unexpected sync defaults: %q %v", cfg.SyncSchedule, cfg.ViewCacheTTL)
		}
		if cfg.AuthEnabled() {
			t.Fatalf("expected auth to be disabled by default")
		}
		if wd, _ := cfg.FirstWeekday(); wd != time.Monday {
			t.Fatalf("expected Monday week start, got %v", wd)
		}
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BLOCKCAL_HTTP_PORT", "9090")
		t.Setenv("BLOCKCAL_USER_ID", "alice")
		t.Setenv("BLOCKCAL_WEEK_START", "sunday")
		t.Setenv("BLOCKCAL_PIXELS_PER_HOUR", "48")
		t.Setenv("BLOCKCAL_VIEW_CACHE_TTL", "5s")
		t.Setenv("BLOCKCAL_SYNC_SCHEDULE", "*/5 * * * *")
		t.Setenv("BLOCKCAL_TIMEZONE", "UTC")
		t.Setenv("BLOCKCAL_AUTH_USER", "alice")
		t.Setenv("BLOCKCAL_AUTH_PASSWORD_HASH", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.UserID != "alice" || cfg.PixelsPerHour != 48 || cfg.ViewCacheTTL != 5*time.Second {
			t.Fatalf("overrides not applied: %+v", cfg)
		}
		if wd, _ := cfg.FirstWeekday(); wd != time.Sunday {
			t.Fatalf("expected Sunday week start, got %v", wd)
		}
		if loc, _ := cfg.Location(); loc != time.UTC {
			t.Fatalf("expected UTC location, got %v", loc)
		}
		if !cfg.AuthEnabled() {
			t.Fatalf("expected auth to be enabled")
		}
	})

	t.Run("yaml file sits between defaults and environment", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "blockcal.yaml")
		content := strings.Join([]string{
			"http_port: 7070",
			"user_id: from-file",
			"view_cache_ttl: 1m",
			"basic_auth:",
			"  username: owner",
			"  password_hash: stored-hash",
		}, "\n")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		t.Setenv("BLOCKCAL_CONFIG_FILE", path)
		t.Setenv("BLOCKCAL_HTTP_PORT", "6060")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 6060 {
			t.Fatalf("expected environment to win, got %d", cfg.HTTPPort)
		}
		if cfg.UserID != "from-file" || cfg.ViewCacheTTL != time.Minute || cfg.BasicAuth.Username != "owner" {
			t.Fatalf("file values not applied: %+v", cfg)
		}
		if cfg.SQLiteDSN != "blockcal.db" {
			t.Fatalf("expected untouched default, got %q", cfg.SQLiteDSN)
		}
	})

	t.Run("errors when the config file cannot be read", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BLOCKCAL_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

		if _, err := Load(); err == nil {
			t.Fatalf("expected error for missing config file")
		}
	})

	t.Run("errors when the password hash is missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BLOCKCAL_AUTH_USER", "owner")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when password hash is missing")
		}
		expected := "missing required configuration: BLOCKCAL_AUTH_PASSWORD_HASH"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BLOCKCAL_HTTP_PORT", "abc")
		t.Setenv("BLOCKCAL_WEEK_START", "friday")
		t.Setenv("BLOCKCAL_SYNC_SCHEDULE", "every now and then")
		t.Setenv("BLOCKCAL_VIEW_CACHE_TTL", "-1s")
		t.Setenv("BLOCKCAL_TIMEZONE", "Mars/Olympus")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{
			"BLOCKCAL_HTTP_PORT",
			"BLOCKCAL_WEEK_START",
			"BLOCKCAL_SYNC_SCHEDULE",
			"BLOCKCAL_VIEW_CACHE_TTL",
			"BLOCKCAL_TIMEZONE",
		} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in error %q", key, err.Error())
			}
		}
	})
}
