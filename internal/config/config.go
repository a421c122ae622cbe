// Package config loads the front end's settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ServerConfig holds configuration for the contactbook web server.
type ServerConfig struct {
	Addr      string `yaml:"addr" env:"CONTACTBOOK_ADDR" env-default:":8080" env-description:"listen address"`
	LogLevel  string `yaml:"log_level" env:"CONTACTBOOK_LOG_LEVEL" env-default:"info" env-description:"debug, info, warn, error"`
	LogFormat string `yaml:"log_format" env:"CONTACTBOOK_LOG_FORMAT" env-default:"text" env-description:"text or json"`

	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Audit   AuditConfig   `yaml:"audit"`
	Lockout LockoutConfig `yaml:"lockout"`

	DisableMetrics bool `yaml:"disable_metrics" env:"CONTACTBOOK_DISABLE_METRICS" env-description:"do not serve /metrics"`
}

// APIConfig points at the remote contacts and identity API.
type APIConfig struct {
	BaseURL            string        `yaml:"base_url" env:"CONTACTBOOK_API_URL" env-default:"https://localhost:7037"`
	Timeout            time.Duration `yaml:"timeout" env:"CONTACTBOOK_API_TIMEOUT" env-default:"30s"`
	MaxRetries         int           `yaml:"max_retries" env:"CONTACTBOOK_API_MAX_RETRIES" env-default:"0"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" env:"CONTACTBOOK_API_INSECURE"`
}

// SessionConfig controls the session cookies.
type SessionConfig struct {
	SecureCookies bool          `yaml:"secure_cookies" env:"CONTACTBOOK_SECURE_COOKIES"`
	TTL           time.Duration `yaml:"ttl" env:"CONTACTBOOK_SESSION_TTL" env-default:"30m"`
}

// AuditConfig controls the local activity log.
type AuditConfig struct {
	DBPath    string        `yaml:"db_path" env:"CONTACTBOOK_AUDIT_DB" env-default:"contactbook-audit.db" env-description:"SQLite path, :memory: for testing"`
	Retention time.Duration `yaml:"retention" env:"CONTACTBOOK_AUDIT_RETENTION" env-default:"720h"`
}

// LockoutConfig controls the failed-login limiter.
type LockoutConfig struct {
	RedisURL    string        `yaml:"redis_url" env:"CONTACTBOOK_REDIS_URL" env-description:"use Redis for lockout counters when set"`
	MaxFailures int           `yaml:"max_failures" env:"CONTACTBOOK_LOCKOUT_MAX_FAILURES" env-default:"10"`
	Duration    time.Duration `yaml:"duration" env:"CONTACTBOOK_LOCKOUT_DURATION" env-default:"10m"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		API: APIConfig{
			BaseURL: "https://localhost:7037",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			TTL: 30 * time.Minute,
		},
		Audit: AuditConfig{
			DBPath:    "contactbook-audit.db",
			Retention: 720 * time.Hour,
		},
		Lockout: LockoutConfig{
			MaxFailures: 10,
			Duration:    10 * time.Minute,
		},
	}
}

// Load reads the config file at path (if any), then applies CONTACTBOOK_*
// environment variables and defaults.
func Load(path string) (ServerConfig, error) {
	var cfg ServerConfig
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return ServerConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values the server cannot start without.
func (c ServerConfig) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL))
	}
	if c.API.MaxRetries < 0 {
		errs = append(errs, errors.New("api.max_retries must not be negative"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Lockout.MaxFailures <= 0 || c.Lockout.Duration <= 0 {
		errs = append(errs, errors.New("lockout.max_failures and lockout.duration must be positive"))
	}
	return errors.Join(errs...)
}

// Usage describes the environment variables Load understands.
func Usage() string {
	var cfg ServerConfig
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
