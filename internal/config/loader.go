package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read by Load.
const (
	EnvConfigFile = "GATEWAY_CONFIG"
	EnvPrefix     = "GATEWAY_"
	EnvPort       = "PORT"
)

const (
	minPort = 1
	maxPort = 65535
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if GATEWAY_CONFIG is set
//  3. env (prefix GATEWAY_)
//  4. PORT
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// GATEWAY_LOG_LEVEL -> log_level. Underscores are kept to match the koanf tags.
	prefixed := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(prefixed, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// The bare PORT variable. A blank key drops PORTAL_* and friends.
	port := env.Provider(EnvPort, ".", func(s string) string {
		if s != EnvPort {
			return ""
		}
		return "port"
	})
	if err := k.Load(port, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if k.Exists("port") {
		raw := strings.TrimSpace(k.String("port"))
		if _, err := strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("%w: port %q is not an integer", ErrInvalidConfig, raw)
		}
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Port < minPort || c.Port > maxPort {
		return fmt.Errorf("%w: port %d out of range %d-%d", ErrInvalidConfig, c.Port, minPort, maxPort)
	}
	timeouts := []struct {
		name string
		ms   int
	}{
		{"read_timeout_ms", c.ReadTimeoutMS},
		{"write_timeout_ms", c.WriteTimeoutMS},
		{"idle_timeout_ms", c.IdleTimeoutMS},
		{"read_header_timeout_ms", c.ReadHeaderTimeoutMS},
		{"shutdown_timeout_ms", c.ShutdownTimeoutMS},
	}
	for _, t := range timeouts {
		if t.ms < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, t.name)
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
