// Package config resolves dbpilot configuration from defaults, an optional
// YAML file, and environment variables (in that precedence order). An
// optional .env file can be loaded into the process environment first.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultDBHost      = "localhost"
	defaultDBPort      = 5432
	defaultDBSSLMode   = "disable"
	defaultModel       = "gemini-2.5-flash"
	defaultTemperature = 0.25
	defaultServerPort  = "8000"
	defaultSessionTTL  = "24h"
	defaultLLMTimeout  = "120s"
)

// Config holds all dbpilot configuration.
type Config struct {
	// Database connection settings
	Database DatabaseConfig `yaml:"database"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// HTTP server and session settings
	Server ServerConfig `yaml:"server"`

	// Debug switches the logger to development output and controls the
	// DEBUG environment flag semantics.
	Debug bool `yaml:"debug"`
}

// DatabaseConfig describes the PostgreSQL connection.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"-"`
	SSLMode  string `yaml:"ssl_mode" validate:"omitempty,oneof=disable require verify-ca verify-full prefer allow"`
}

// LLMConfig configures the Gemini client.
type LLMConfig struct {
	APIKey      string  `yaml:"-"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`
	Timeout     string  `yaml:"timeout"`
}

// ServerConfig configures the web chat frontend.
type ServerConfig struct {
	Port                string  `yaml:"port"`
	SecretKey           string  `yaml:"-"`
	SessionTTL          string  `yaml:"session_ttl"`
	ShutdownGracePeriod string  `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout   string  `yaml:"read_header_timeout"`
	WriteTimeout        string  `yaml:"write_timeout"`
	IdleTimeout         string  `yaml:"idle_timeout"`
	RateLimitRPS        float64 `yaml:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst      int     `yaml:"rate_limit_burst" validate:"gte=0"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:    defaultDBHost,
			Port:    defaultDBPort,
			SSLMode: defaultDBSSLMode,
		},
		LLM: LLMConfig{
			Model:       defaultModel,
			Temperature: defaultTemperature,
			Timeout:     defaultLLMTimeout,
		},
		Server: ServerConfig{
			Port:                defaultServerPort,
			SessionTTL:          defaultSessionTTL,
			ShutdownGracePeriod: "10s",
			ReadHeaderTimeout:   "5s",
			WriteTimeout:        "60s",
			IdleTimeout:         "60s",
			RateLimitRPS:        25,
			RateLimitBurst:      50,
		},
	}
}

// Load builds the configuration from an optional YAML file and the process
// environment. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks structural constraints. Credential presence is checked by
// the Require* methods because it depends on which command is running.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// RequireLLM fails when no Gemini credential is configured.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("Gemini API key not configured (set GEMINI_API_KEY or GOOGLE_API_KEY)")
	}
	return nil
}

// RequireDatabase fails when the database settings cannot produce a
// connection string. Host and port always have defaults; credentials do not.
func (c *Config) RequireDatabase() error {
	if c.Database.Name == "" {
		return fmt.Errorf("database name not configured (set DB_NAME)")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user not configured (set DB_USER)")
	}
	return nil
}

// RequireWeb fails when the session signing key is missing.
func (c *Config) RequireWeb() error {
	if c.Server.SecretKey == "" {
		return fmt.Errorf("session secret not configured (set SECRET_KEY)")
	}
	return nil
}

// URL renders a postgres:// connection string for pgx.
func (d DatabaseConfig) URL() string {
	return d.urlWithScheme("postgres")
}

// MigrateURL renders the pgx5:// form golang-migrate's pgx driver expects.
func (d DatabaseConfig) MigrateURL() string {
	return d.urlWithScheme("pgx5")
}

func (d DatabaseConfig) urlWithScheme(scheme string) string {
	u := url.URL{
		Scheme: scheme,
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}
	if d.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", d.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// GetLLMTimeout returns the LLM request timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetSessionTTL returns the web session lifetime as a duration.
func (c *Config) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// GetShutdownGracePeriod returns how long graceful shutdown may take.
func (c *Config) GetShutdownGracePeriod() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownGracePeriod)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetReadHeaderTimeout returns the server read-header timeout.
func (c *Config) GetReadHeaderTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ReadHeaderTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetWriteTimeout returns the server write timeout.
func (c *Config) GetWriteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.WriteTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetIdleTimeout returns the server idle timeout.
func (c *Config) GetIdleTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.IdleTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}
