package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds the single account allowed to use the API. The
// password is stored as an argon2id hash, never in clear text.
type BasicAuthConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// Config captures file and environment driven configuration values for the
// block calendar.
type Config struct {
	HTTPPort  int    `yaml:"http_port"`
	SQLiteDSN string `yaml:"sqlite_dsn"`
	// CacheFile is the JSON fallback used while the database is unavailable.
	CacheFile string `yaml:"cache_file"`
	UserID    string `yaml:"user_id"`

	// Timezone places reminder times. Empty means the process local zone.
	Timezone  string `yaml:"timezone"`
	WeekStart string `yaml:"week_start"`

	PixelsPerHour float64       `yaml:"pixels_per_hour"`
	SyncSchedule  string        `yaml:"sync_schedule"`
	SyncTimeout   time.Duration `yaml:"sync_timeout"`
	ViewCacheTTL  time.Duration `yaml:"view_cache_ttl"`
	MaxWindowDays int           `yaml:"max_window_days"`
	ExportName    string        `yaml:"export_name"`

	BasicAuth BasicAuthConfig `yaml:"basic_auth"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		HTTPPort:      8080,
		SQLiteDSN:     "blockcal.db",
		CacheFile:     "blockcal-cache.json",
		UserID:        "local",
		WeekStart:     "monday",
		PixelsPerHour: 60,
		SyncSchedule:  "@every 30s",
		SyncTimeout:   10 * time.Second,
		ViewCacheTTL:  30 * time.Second,
		MaxWindowDays: 370,
		ExportName:    "Time blocks",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// BLOCKCAL_CONFIG_FILE when set, then BLOCKCAL_* environment variables.
//
// Every missing or invalid value is collected and reported in one error.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("BLOCKCAL_CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("BLOCKCAL_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "BLOCKCAL_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	stringOverrides := []struct {
		key string
		dst *string
	}{
		{"BLOCKCAL_SQLITE_DSN", &cfg.SQLiteDSN},
		{"BLOCKCAL_CACHE_FILE", &cfg.CacheFile},
		{"BLOCKCAL_USER_ID", &cfg.UserID},
		{"BLOCKCAL_TIMEZONE", &cfg.Timezone},
		{"BLOCKCAL_WEEK_START", &cfg.WeekStart},
		{"BLOCKCAL_SYNC_SCHEDULE", &cfg.SyncSchedule},
		{"BLOCKCAL_EXPORT_NAME", &cfg.ExportName},
		{"BLOCKCAL_AUTH_USER", &cfg.BasicAuth.Username},
		{"BLOCKCAL_AUTH_PASSWORD_HASH", &cfg.BasicAuth.PasswordHash},
	}
	for _, o := range stringOverrides {
		if value := strings.TrimSpace(os.Getenv(o.key)); value != "" {
			*o.dst = value
		}
	}

	if pphValue := strings.TrimSpace(os.Getenv("BLOCKCAL_PIXELS_PER_HOUR")); pphValue != "" {
		pph, err := strconv.ParseFloat(pphValue, 64)
		if err != nil || pph <= 0 {
			invalid = append(invalid, "BLOCKCAL_PIXELS_PER_HOUR")
		} else {
			cfg.PixelsPerHour = pph
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("BLOCKCAL_VIEW_CACHE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "BLOCKCAL_VIEW_CACHE_TTL")
		} else {
			cfg.ViewCacheTTL = ttl
		}
	}

	if windowValue := strings.TrimSpace(os.Getenv("BLOCKCAL_MAX_WINDOW_DAYS")); windowValue != "" {
		days, err := strconv.Atoi(windowValue)
		if err != nil || days <= 0 {
			invalid = append(invalid, "BLOCKCAL_MAX_WINDOW_DAYS")
		} else {
			cfg.MaxWindowDays = days
		}
	}

	if cfg.SQLiteDSN == "" {
		missing = append(missing, "BLOCKCAL_SQLITE_DSN")
	}
	if cfg.UserID == "" {
		missing = append(missing, "BLOCKCAL_USER_ID")
	}
	if cfg.BasicAuth.Username != "" && cfg.BasicAuth.PasswordHash == "" {
		missing = append(missing, "BLOCKCAL_AUTH_PASSWORD_HASH")
	}
	invalid = dedupe(append(invalid, cfg.invalidFields()...))

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// mergeFile overlays the fields present in a YAML file onto cfg.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// invalidFields checks values that may come from either source.
func (c Config) invalidFields() []string {
	var invalid []string
	if c.HTTPPort <= 0 {
		invalid = append(invalid, "BLOCKCAL_HTTP_PORT")
	}
	if _, err := c.Location(); err != nil {
		invalid = append(invalid, "BLOCKCAL_TIMEZONE")
	}
	if _, err := c.FirstWeekday(); err != nil {
		invalid = append(invalid, "BLOCKCAL_WEEK_START")
	}
	if _, err := cron.ParseStandard(c.SyncSchedule); err != nil {
		invalid = append(invalid, "BLOCKCAL_SYNC_SCHEDULE")
	}
	if c.PixelsPerHour <= 0 {
		invalid = append(invalid, "BLOCKCAL_PIXELS_PER_HOUR")
	}
	if c.ViewCacheTTL <= 0 {
		invalid = append(invalid, "BLOCKCAL_VIEW_CACHE_TTL")
	}
	if c.MaxWindowDays <= 0 {
		invalid = append(invalid, "BLOCKCAL_MAX_WINDOW_DAYS")
	}
	return invalid
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// FirstWeekday resolves WeekStart: "monday" or "sunday".
func (c Config) FirstWeekday() (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(c.WeekStart)) {
	case "", "monday":
		return time.Monday, nil
	case "sunday":
		return time.Sunday, nil
	default:
		return time.Monday, errors.New("week start must be monday or sunday")
	}
}

// AuthEnabled reports whether Basic auth credentials are configured.
func (c Config) AuthEnabled() bool {
	return c.BasicAuth.Username != "" && c.BasicAuth.PasswordHash != ""
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
