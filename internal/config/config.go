// Package config loads the portal configuration from config/portal.yaml
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level portal configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	ListenAddr        string        `yaml:"listen_addr"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	RateLimitPerSec   int           `yaml:"rate_limit_per_sec"`
	RateLimitBurst    int           `yaml:"rate_limit_burst"`
	EnableRateLimiter bool          `yaml:"enable_rate_limiter"`
}

// UpstreamConfig configures the external API gateway client.
type UpstreamConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// AuthConfig configures admin bearer-token validation. The token itself is
// issued by the external directory-auth service; the portal only checks
// signature and expiry.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads the configuration from config/portal.yaml.
func Load() (*Config, error) {
	return LoadFromPath(filepath.Join("config", "portal.yaml"))
}

// LoadFromPath loads configuration from a specific path. A missing file is
// not an error; defaults plus environment overrides apply.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:        ":8080",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			AllowedOrigins:    []string{"*"},
			RateLimitPerSec:   20,
			RateLimitBurst:    40,
			EnableRateLimiter: true,
		},
		Upstream: UpstreamConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORTAL_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("PORTAL_UPSTREAM_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("PORTAL_UPSTREAM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Upstream.Timeout = d
		}
	}
	if v := os.Getenv("PORTAL_UPSTREAM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Upstream.MaxRetries = n
		}
	}
	if v := os.Getenv("PORTAL_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("PORTAL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream base URL is required (PORTAL_UPSTREAM_URL or upstream.base_url)")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}
	return nil
}
