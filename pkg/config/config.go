// Package config loads the application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/acikit/go-aci-validator/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	ACI     ACIConfig     `yaml:"aci" envconfig:"ACI"`
	Monitor MonitorConfig `yaml:"monitor" envconfig:"MONITOR"`

	// Defaults is a descriptor fragment folded into every server entry:
	// fields a server leaves unset are taken from here.
	Defaults *domain.ServerDescriptor `yaml:"defaults"`

	// Servers is the set of named server descriptors to register.
	Servers map[string]domain.ServerDescriptor `yaml:"servers"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host       string `yaml:"host" envconfig:"HOST"`
	Port       int    `yaml:"port" envconfig:"PORT"`
	AdminToken string `yaml:"admin_token" envconfig:"ADMIN_TOKEN"` // Bearer token for mutating endpoints (auto-generated if empty)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" envconfig:"FORMAT"` // json, text
}

// ACIConfig contains settings for the outbound ACI and index clients
type ACIConfig struct {
	// Timeout bounds each individual remote call (seconds).
	Timeout int `yaml:"timeout" envconfig:"TIMEOUT"`
	// InsecureSkipVerify disables TLS verification for HTTPS probes. ACI
	// servers commonly run with self-signed certificates.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" envconfig:"INSECURE_SKIP_VERIFY"`
}

// MonitorConfig contains background revalidation configuration
type MonitorConfig struct {
	// Interval between validation passes (seconds, 0 disables the monitor).
	Interval int `yaml:"interval" envconfig:"INTERVAL"`
	// Timeout for one full validation of a single server (seconds).
	Timeout int `yaml:"timeout" envconfig:"TIMEOUT"`
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Load from YAML file if provided (overrides defaults)
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// File doesn't exist, that's ok - we'll use defaults and env vars
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("ACIVALIDATOR", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	// Fold the shared defaults into every server entry
	for name, sd := range cfg.Servers {
		cfg.Servers[name] = sd.Merge(cfg.Defaults)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible default values
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		ACI: ACIConfig{
			Timeout: 10, // seconds
		},
		Monitor: MonitorConfig{
			Interval: 300, // seconds
			Timeout:  60,  // seconds
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Monitor.Interval < 0 {
		return fmt.Errorf("monitor interval must not be negative")
	}

	for name, sd := range c.Servers {
		if err := sd.CheckRequiredFields(); err != nil {
			return fmt.Errorf("server %q: %w", name, err)
		}
		if len(sd.ProductTypes) == 0 && sd.ProductTypeRegex == "" {
			return fmt.Errorf("server %q: product_types or product_type_regex is required", name)
		}
		if _, err := sd.CompileProductTypeRegex(); err != nil {
			return fmt.Errorf("server %q: %w", name, err)
		}
	}

	return nil
}

// Address returns the server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TimeoutDuration returns the ACI call timeout as a duration
func (c *ACIConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// IntervalDuration returns the monitor interval as a duration
func (c *MonitorConfig) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// TimeoutDuration returns the per-server validation timeout as a duration
func (c *MonitorConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
