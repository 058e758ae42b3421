// Package config defines gateway configuration and its loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig; source failures wrap ErrLoadConfig.
package config

import (
	"context"
	"net"
	"strconv"
	"time"
)

// Default values.
const (
	DefaultPort = 8080

	defaultReadTimeoutMS       = 10_000
	defaultWriteTimeoutMS      = 10_000
	defaultIdleTimeoutMS       = 60_000
	defaultReadHeaderTimeoutMS = 5_000
	defaultShutdownTimeoutMS   = 30_000
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Host is the interface to bind; empty means all interfaces.
	Host string `koanf:"host"`

	// Port is the public TCP port. Overridden by the bare PORT variable.
	Port int `koanf:"port"`

	// MetricsAddr enables the admin listener (/metrics, /openapi.yaml) when set, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	ReadTimeoutMS       int `koanf:"read_timeout_ms"`
	WriteTimeoutMS      int `koanf:"write_timeout_ms"`
	IdleTimeoutMS       int `koanf:"idle_timeout_ms"`
	ReadHeaderTimeoutMS int `koanf:"read_header_timeout_ms"`
	ShutdownTimeoutMS   int `koanf:"shutdown_timeout_ms"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Host:                "",
		Port:                DefaultPort,
		MetricsAddr:         "",
		ReadTimeoutMS:       defaultReadTimeoutMS,
		WriteTimeoutMS:      defaultWriteTimeoutMS,
		IdleTimeoutMS:       defaultIdleTimeoutMS,
		ReadHeaderTimeoutMS: defaultReadHeaderTimeoutMS,
		ShutdownTimeoutMS:   defaultShutdownTimeoutMS,
	}
}

// Addr is the public listen address built from Host and Port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMS) * time.Millisecond
}

func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMS) * time.Millisecond
}

func (c *Config) ReadHeaderTimeout() time.Duration {
	return time.Duration(c.ReadHeaderTimeoutMS) * time.Millisecond
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}
