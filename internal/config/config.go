// Package config provides configuration loading using koanf.
// Precedence: environment → YAML file → compiled defaults.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/aelexs/timesync/internal/domain"
)

const (
	// EnvPrefix scopes the environment variables read by Load.
	EnvPrefix = "TIMESYNC_"
	// EnvConfigFile names the YAML file to load when no path is given.
	EnvConfigFile = EnvPrefix + "CONFIG_FILE"
)

// Connectivity modes.
const (
	ConnectivityNetlink = "netlink"
	ConnectivityProbe   = "probe"
	ConnectivityNone    = "none"
)

// Config holds all daemon configuration.
type Config struct {
	// Environment identifier: "local", "dev", "prod"
	Environment string `koanf:"environment"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	HTTP         HTTPConfig         `koanf:"http"`
	Authority    AuthorityConfig    `koanf:"authority"`
	Sync         SyncConfig         `koanf:"sync"`
	Connectivity ConnectivityConfig `koanf:"connectivity"`
	Redis        RedisConfig        `koanf:"redis"`
	Cache        CacheConfig        `koanf:"cache"`
	NTP          NTPConfig          `koanf:"ntp"`

	// Locale is a BCP 47 tag used for formatted dates.
	Locale string `koanf:"locale"`
	// WeekStart is "monday" or "sunday".
	WeekStart string `koanf:"week_start"`

	OTEL OTELConfig `koanf:"otel"`
}

// HTTPConfig holds the developer HTTP surface configuration.
type HTTPConfig struct {
	Port int `koanf:"port"`
}

// AuthorityConfig locates the remote time authority.
type AuthorityConfig struct {
	BaseURL string              `koanf:"base_url"` // Required outside local
	Timeout time.Duration       `koanf:"timeout"`
	Token   domain.SecretString `koanf:"token"` // Optional initial bearer token
}

// SyncConfig tunes the sync coordinator and periodic scheduler.
type SyncConfig struct {
	Freshness time.Duration `koanf:"freshness"`
	Interval  time.Duration `koanf:"interval"`
	MaxErrors int           `koanf:"max_errors"`
}

// ConnectivityConfig selects how online/offline transitions are observed.
type ConnectivityConfig struct {
	Mode          string        `koanf:"mode"`
	ProbeInterval time.Duration `koanf:"probe_interval"`
	ProbeAddress  string        `koanf:"probe_address"` // host:port; defaults to the authority host
}

// RedisConfig holds Redis configuration. An empty Addr disables cache
// invalidation.
type RedisConfig struct {
	Addr     string              `koanf:"addr"`
	Password domain.SecretString `koanf:"password"`
	DB       int                 `koanf:"db"`
	Timeout  time.Duration       `koanf:"timeout"`
}

// CacheConfig lists the date-keyed key patterns dropped on a day change.
type CacheConfig struct {
	InvalidatePatterns []string `koanf:"invalidate_patterns"`
}

// NTPConfig configures clock drift diagnostics.
type NTPConfig struct {
	Server    string        `koanf:"server"`
	Threshold time.Duration `koanf:"threshold"`
	Timeout   time.Duration `koanf:"timeout"`
}

// OTELConfig holds OpenTelemetry configuration.
type OTELConfig struct {
	Endpoint    string `koanf:"endpoint"` // Empty disables OTLP export
	ServiceName string `koanf:"service_name"`
}

// defaults returns a Config with compiled default values.
func defaults() *Config {
	return &Config{
		Environment: "local",
		LogLevel:    "info",
		LogFormat:   "json",

		HTTP: HTTPConfig{Port: 8086},
		Authority: AuthorityConfig{
			BaseURL: "http://localhost:8080/api",
			Timeout: domain.SyncRequestTimeout,
		},
		Sync: SyncConfig{
			Freshness: domain.SyncFreshnessWindow,
			Interval:  domain.ResyncInterval,
			MaxErrors: domain.MaxConsecutiveSyncErrors,
		},
		Connectivity: ConnectivityConfig{
			Mode:          ConnectivityProbe,
			ProbeInterval: domain.ConnectivityProbeInterval,
		},
		Redis: RedisConfig{
			Timeout: domain.RedisTimeout,
		},
		Cache: CacheConfig{
			InvalidatePatterns: []string{"stats:*", "streaks:*", "calendar:{date}*", "gratitude:{date}*"},
		},
		NTP: NTPConfig{
			Server:    domain.DefaultNTPServer,
			Threshold: domain.NTPDriftThreshold,
			Timeout:   domain.NTPQueryTimeout,
		},
		Locale:    domain.DefaultLocale,
		WeekStart: "monday",
		OTEL: OTELConfig{
			ServiceName: "timesyncd",
		},
	}
}

// Load loads configuration following the precedence:
// 1. Environment variables (highest), TIMESYNC_ prefixed, "__" for nesting:
//    TIMESYNC_SYNC__MAX_ERRORS → sync.max_errors
// 2. YAML file at file, or at $TIMESYNC_CONFIG_FILE when file is empty
// 3. Compiled defaults (lowest)
//
// Required keys missing → startup failure.
func Load(ctx context.Context, file string) (*Config, error) {
	k := koanf.New(".")
	cfg := defaults()

	if file == "" {
		file = os.Getenv(EnvConfigFile)
	}
	if file != "" {
		if err := k.Load(YAMLFile(file), nil); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", file, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	normalize(cfg)
	if err := validateRequired(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKey maps TIMESYNC_AUTHORITY__BASE_URL to authority.base_url.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func normalize(cfg *Config) {
	cfg.WeekStart = strings.ToLower(strings.TrimSpace(cfg.WeekStart))
	if cfg.WeekStart != "sunday" {
		cfg.WeekStart = "monday"
	}
	cfg.Connectivity.Mode = strings.ToLower(strings.TrimSpace(cfg.Connectivity.Mode))
	if cfg.Locale == "" {
		cfg.Locale = domain.DefaultLocale
	}
}

// validateRequired checks that required configuration is present.
func validateRequired(cfg *Config) error {
	switch cfg.Connectivity.Mode {
	case ConnectivityNetlink, ConnectivityProbe, ConnectivityNone:
	default:
		return fmt.Errorf("%w: connectivity.mode %q", domain.ErrInvalidInput, cfg.Connectivity.Mode)
	}

	if cfg.IsLocal() {
		return nil
	}

	if cfg.Authority.BaseURL == "" {
		return fmt.Errorf("%w: authority.base_url", domain.ErrConfigRequired)
	}
	return nil
}

// IsLocal returns true if running in local development environment.
func (c *Config) IsLocal() bool {
	return c.Environment == "local"
}

// IsProd returns true if running in production environment.
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// WeekStartDay returns the configured first day of the week.
func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return domain.DefaultWeekStart
}
