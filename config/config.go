// Package config loads fetchmesh configuration from YAML files and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	BackendSlog    = "slog"
	BackendZerolog = "zerolog"
	BackendLogrus  = "logrus"

	DefaultTimeoutSecs       = 30
	DefaultUserAgent         = "fetchmesh/1.0"
	DefaultProxyAddr         = ":8080"
	DefaultJournalMaxEntries = 1000
)

var (
	logBackends   = []string{BackendSlog, BackendZerolog, BackendLogrus}
	logFormats    = []string{"json", "text"}
	redirectModes = []string{"follow", "error", "manual"}
)

// Config is the top-level fetchmesh configuration.
type Config struct {
	Log        LogConfig         `yaml:"log"`
	Transport  TransportConfig   `yaml:"transport"`
	Headers    map[string]string `yaml:"headers"`
	Extensions ExtensionsConfig  `yaml:"extensions"`
	Proxy      ProxyConfig       `yaml:"proxy"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Backend string `yaml:"backend"`
	// Hooks logs every extension hook invocation at debug level.
	Hooks bool `yaml:"hooks"`
}

type TransportConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutSecs int    `yaml:"timeout_seconds"`
	UserAgent   string `yaml:"user_agent"`
	Redirect    string `yaml:"redirect"`
}

type ExtensionsConfig struct {
	Tracing           *bool `yaml:"tracing"`
	Metrics           *bool `yaml:"metrics"`
	Journal           *bool `yaml:"journal"`
	Logging           *bool `yaml:"logging"`
	JournalMaxEntries int   `yaml:"journal_max_entries"`
}

type ProxyConfig struct {
	Addr     string `yaml:"addr"`
	Upstream string `yaml:"upstream"`
}

// WithDefaults fills unset fields. It is safe to call on a nil Config.
func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	c.Log = c.Log.withDefaults()
	c.Transport = c.Transport.withDefaults()
	c.Extensions = c.Extensions.withDefaults()
	c.Proxy = c.Proxy.withDefaults()
	return c
}

func (c LogConfig) withDefaults() LogConfig {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Backend == "" {
		c.Backend = BackendSlog
	}
	return c
}

func (c TransportConfig) withDefaults() TransportConfig {
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Redirect == "" {
		c.Redirect = "follow"
	}
	return c
}

func (c ExtensionsConfig) withDefaults() ExtensionsConfig {
	if c.JournalMaxEntries <= 0 {
		c.JournalMaxEntries = DefaultJournalMaxEntries
	}
	return c
}

func (c ProxyConfig) withDefaults() ProxyConfig {
	if c.Addr == "" {
		c.Addr = DefaultProxyAddr
	}
	return c
}

// TracingEnabled reports whether the tracing extension is on (default off).
func (c ExtensionsConfig) TracingEnabled() bool { return isEnabled(c.Tracing, false) }

// MetricsEnabled reports whether the metrics extension is on (default off).
func (c ExtensionsConfig) MetricsEnabled() bool { return isEnabled(c.Metrics, false) }

// JournalEnabled reports whether the failure journal is on (default on).
func (c ExtensionsConfig) JournalEnabled() bool { return isEnabled(c.Journal, true) }

// LoggingEnabled reports whether the logging extension is on (default off).
func (c ExtensionsConfig) LoggingEnabled() bool { return isEnabled(c.Logging, false) }

func isEnabled(flag *bool, fallback bool) bool {
	if flag == nil {
		return fallback
	}
	return *flag
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil config")
	}
	if !slices.Contains(logBackends, strings.ToLower(c.Log.Backend)) {
		return fmt.Errorf("config: unknown log backend %q", c.Log.Backend)
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if !slices.Contains(redirectModes, strings.ToLower(c.Transport.Redirect)) {
		return fmt.Errorf("config: unknown redirect mode %q", c.Transport.Redirect)
	}
	if err := validateURL("transport.base_url", c.Transport.BaseURL); err != nil {
		return err
	}
	return validateURL("proxy.upstream", c.Proxy.Upstream)
}

func validateURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: %s must use http or https", field)
	}
	return nil
}

// Parse decodes YAML, rejecting unknown fields, and applies defaults. The
// environment is not consulted.
func Parse(data []byte) (*Config, error) {
	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the YAML file at path, fills empty fields from the environment
// and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	cfg = ApplyEnvDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte) (*Config, error) {
	cfg := &Config{}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
