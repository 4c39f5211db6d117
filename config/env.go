package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvLogLevel    = "FETCHMESH_LOG_LEVEL"
	EnvLogFormat   = "FETCHMESH_LOG_FORMAT"
	EnvLogBackend  = "FETCHMESH_LOG_BACKEND"
	EnvBaseURL     = "FETCHMESH_BASE_URL"
	EnvTimeoutSecs = "FETCHMESH_TIMEOUT_SECONDS"
	EnvUserAgent   = "FETCHMESH_USER_AGENT"
	EnvHeaders     = "FETCHMESH_HEADERS"
	EnvProxyAddr   = "FETCHMESH_PROXY_ADDR"
	EnvUpstream    = "FETCHMESH_UPSTREAM"
)

// ConfigFromEnv builds a config using environment variables.
func ConfigFromEnv() *Config {
	cfg := fromEnv()
	return cfg.WithDefaults()
}

func fromEnv() *Config {
	cfg := &Config{}

	cfg.Log.Level = envOr(cfg.Log.Level, os.Getenv(EnvLogLevel))
	cfg.Log.Format = envOr(cfg.Log.Format, os.Getenv(EnvLogFormat))
	cfg.Log.Backend = envOr(cfg.Log.Backend, os.Getenv(EnvLogBackend))

	cfg.Transport.BaseURL = envOr(cfg.Transport.BaseURL, os.Getenv(EnvBaseURL))
	cfg.Transport.UserAgent = envOr(cfg.Transport.UserAgent, os.Getenv(EnvUserAgent))
	if secs, err := strconv.Atoi(strings.TrimSpace(os.Getenv(EnvTimeoutSecs))); err == nil && secs > 0 {
		cfg.Transport.TimeoutSecs = secs
	}

	if headers := strings.TrimSpace(os.Getenv(EnvHeaders)); headers != "" {
		cfg.Headers = ParseHeaders(splitCSV(headers))
	}

	cfg.Proxy.Addr = envOr(cfg.Proxy.Addr, os.Getenv(EnvProxyAddr))
	cfg.Proxy.Upstream = envOr(cfg.Proxy.Upstream, os.Getenv(EnvUpstream))

	return cfg
}

// ApplyEnvDefaults fills empty config fields from environment variables and
// then applies defaults.
func ApplyEnvDefaults(cfg *Config) *Config {
	if cfg == nil {
		return ConfigFromEnv()
	}
	env := fromEnv()

	if cfg.Log.Level == "" {
		cfg.Log.Level = env.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = env.Log.Format
	}
	if cfg.Log.Backend == "" {
		cfg.Log.Backend = env.Log.Backend
	}
	if cfg.Transport.BaseURL == "" {
		cfg.Transport.BaseURL = env.Transport.BaseURL
	}
	if cfg.Transport.UserAgent == "" {
		cfg.Transport.UserAgent = env.Transport.UserAgent
	}
	if cfg.Transport.TimeoutSecs <= 0 {
		cfg.Transport.TimeoutSecs = env.Transport.TimeoutSecs
	}
	for k, v := range env.Headers {
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		if _, ok := cfg.Headers[k]; !ok {
			cfg.Headers[k] = v
		}
	}
	if cfg.Proxy.Addr == "" {
		cfg.Proxy.Addr = env.Proxy.Addr
	}
	if cfg.Proxy.Upstream == "" {
		cfg.Proxy.Upstream = env.Proxy.Upstream
	}

	return cfg.WithDefaults()
}

// ParseHeaders turns "Key=Value" (or "Key: Value") items into a map.
// Malformed items are skipped.
func ParseHeaders(items []string) map[string]string {
	out := make(map[string]string, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		if !ok {
			k, v, ok = strings.Cut(item, ":")
		}
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

func envOr(existing, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return existing
	}
	return value
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	var out []string
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
