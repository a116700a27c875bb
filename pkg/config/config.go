// Package config loads the wallboard service configuration from an
// optional YAML file with WALLBOARD_* environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// DefaultListen is the default HTTP listen address.
	DefaultListen = ":8080"

	// DefaultStoreTable is the default store table name.
	DefaultStoreTable = "team_benchmarks"

	// DefaultSessionTTL is the default session token time-to-live.
	DefaultSessionTTL = 12 * time.Hour

	// DevSessionSecret is the development-only token signing secret.
	// Validate rejects it in production.
	DevSessionSecret = "dev-only-secret-change-me"

	// DevAdminPassword is the development-only admin password.
	// Validate rejects it in production.
	DevAdminPassword = "changeme"

	// DefaultStoreTimeout bounds each store round trip.
	DefaultStoreTimeout = 10 * time.Second

	// DefaultRefreshInterval is how often display clients should poll.
	DefaultRefreshInterval = 60 * time.Second

	envPrefix = "WALLBOARD"
)

// Config is the root configuration for the wallboard service.
type Config struct {
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Server      ServerConfig  `yaml:"server" mapstructure:"server"`
	Store       StoreConfig   `yaml:"store" mapstructure:"store"`
	Auth        AuthConfig    `yaml:"auth" mapstructure:"auth"`
	Display     DisplayConfig `yaml:"display" mapstructure:"display"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Listen      string          `yaml:"listen" mapstructure:"listen"`
	CORSOrigins []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Auth    RateLimitTier `yaml:"auth,omitempty" mapstructure:"auth"`
	Public  RateLimitTier `yaml:"public,omitempty" mapstructure:"public"`
}

// RateLimitTier defines request limits for a specific tier.
type RateLimitTier struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// StoreConfig contains the external REST store connection settings.
// The read key is safe for the read path; mutation requires the
// stronger write key.
type StoreConfig struct {
	URL      string        `yaml:"url,omitempty" mapstructure:"url"`
	Table    string        `yaml:"table,omitempty" mapstructure:"table"`
	ReadKey  string        `yaml:"read_key,omitempty" mapstructure:"read_key"`
	WriteKey string        `yaml:"write_key,omitempty" mapstructure:"write_key"`
	Timeout  time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// ReadConfigured reports whether the read path has store credentials.
// When false the service runs in demo mode and serves default rows.
func (s *StoreConfig) ReadConfigured() bool {
	return s.URL != "" && s.ReadKey != ""
}

// WriteConfigured reports whether the write path has store credentials.
func (s *StoreConfig) WriteConfigured() bool {
	return s.URL != "" && s.WriteKey != ""
}

// AuthConfig contains the admin session settings.
type AuthConfig struct {
	SessionSecret       string        `yaml:"session_secret,omitempty" mapstructure:"session_secret"`
	AdminPassword       string        `yaml:"admin_password,omitempty" mapstructure:"admin_password"`
	AdminPasswordBcrypt string        `yaml:"admin_password_bcrypt,omitempty" mapstructure:"admin_password_bcrypt"`
	SessionTTL          time.Duration `yaml:"session_ttl,omitempty" mapstructure:"session_ttl"`
}

// DisplayConfig contains settings the display clients read from /config.
type DisplayConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty" mapstructure:"refresh_interval"`
}

// Load reads configuration from an optional YAML file path and applies
// WALLBOARD_* environment overrides. An empty path is valid: the
// environment alone is a complete configuration source.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys must be registered for AutomaticEnv to pick them up when no
	// config file supplies them.
	for _, key := range configKeys {
		v.SetDefault(key, nil)
	}

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// configKeys lists every setting so environment-only deployments work.
var configKeys = []string{
	"environment",
	"server.listen",
	"server.cors_origins",
	"server.rate_limit.enabled",
	"server.rate_limit.auth.requests_per_minute",
	"server.rate_limit.public.requests_per_minute",
	"store.url",
	"store.table",
	"store.read_key",
	"store.write_key",
	"store.timeout",
	"auth.session_secret",
	"auth.admin_password",
	"auth.admin_password_bcrypt",
	"auth.session_ttl",
	"display.refresh_interval",
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}

	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}

	if c.Store.Table == "" {
		c.Store.Table = DefaultStoreTable
	}

	if c.Store.Timeout == 0 {
		c.Store.Timeout = DefaultStoreTimeout
	}

	if c.Auth.SessionSecret == "" {
		c.Auth.SessionSecret = DevSessionSecret
	}

	if c.Auth.AdminPassword == "" && c.Auth.AdminPasswordBcrypt == "" {
		c.Auth.AdminPassword = DevAdminPassword
	}

	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = DefaultSessionTTL
	}

	if c.Display.RefreshInterval == 0 {
		c.Display.RefreshInterval = DefaultRefreshInterval
	}
}

// Production reports whether the config describes a production deployment.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

// Validate checks the configuration for errors. Development deployments
// may run on the built-in dev secrets; production must set explicit ones.
func (c *Config) Validate() error {
	if c.Environment != "development" && c.Environment != "production" {
		return fmt.Errorf(
			"environment must be \"development\" or \"production\", got %q",
			c.Environment,
		)
	}

	if c.Production() {
		if c.Auth.SessionSecret == DevSessionSecret {
			return fmt.Errorf("production requires an explicit auth.session_secret")
		}

		if c.Auth.AdminPasswordBcrypt == "" && c.Auth.AdminPassword == DevAdminPassword {
			return fmt.Errorf("production requires an explicit auth.admin_password")
		}
	}

	if c.Store.URL == "" && (c.Store.ReadKey != "" || c.Store.WriteKey != "") {
		return fmt.Errorf("store keys configured without store.url")
	}

	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.Auth.RequestsPerMinute <= 0 {
			return fmt.Errorf("rate_limit.auth.requests_per_minute must be positive")
		}

		if c.Server.RateLimit.Public.RequestsPerMinute <= 0 {
			return fmt.Errorf("rate_limit.public.requests_per_minute must be positive")
		}
	}

	return nil
}

// Redacted returns a copy safe for printing: secrets are masked but
// presence is still visible.
func (c *Config) Redacted() Config {
	out := *c

	mask := func(s string) string {
		if s == "" {
			return ""
		}

		return "<set>"
	}

	out.Store.ReadKey = mask(out.Store.ReadKey)
	out.Store.WriteKey = mask(out.Store.WriteKey)
	out.Auth.SessionSecret = mask(out.Auth.SessionSecret)
	out.Auth.AdminPassword = mask(out.Auth.AdminPassword)
	out.Auth.AdminPasswordBcrypt = mask(out.Auth.AdminPasswordBcrypt)

	return out
}
