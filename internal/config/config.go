// Package config resolves runtime settings for plugin processes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/edlink/internal/plugin/protocol"
)

// Environment variables read by WithEnvConfig.
const (
	EnvLogLevel    = "EDLINK_LOG_LEVEL"
	EnvLogFormat   = "EDLINK_LOG_FORMAT"
	EnvBoolOnEOF   = "EDLINK_BOOL_ON_EOF"
	EnvReadTimeout = "EDLINK_READ_TIMEOUT"
	EnvMaxBlock    = "EDLINK_MAX_BLOCK"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds plugin runtime configuration.
type Config struct {
	// LogLevel is an hclog level name (trace, debug, info, warn, error, off).
	LogLevel string

	// LogFormat is "text" or "json".
	LogFormat string

	// BoolOnEOF is what boolean replies report when the host hangs up
	// before answering.
	BoolOnEOF protocol.EOFPolicy

	// ReadTimeout bounds each wait for a reply. Zero waits forever.
	ReadTimeout time.Duration

	// MaxBlock bounds the size of a block accepted from the host. Zero
	// means no limit.
	MaxBlock int
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogLevel:  "warn",
		LogFormat: FormatText,
		BoolOnEOF: protocol.EOFAssumeTrue,
		MaxBlock:  protocol.DefaultMaxBlock,
	}
}

// Limits returns the protocol limits implied by c.
func (c Config) Limits() protocol.Limits {
	return protocol.Limits{MaxBlock: c.MaxBlock}
}

// Builder provides a fluent interface for constructing a Config.
type Builder struct {
	config Config
	useEnv bool
	lookup func(string) (string, bool)
}

// NewBuilder creates a builder seeded with Default().
func NewBuilder() *Builder {
	return &Builder{
		config: Default(),
		lookup: os.LookupEnv,
	}
}

// WithConfig replaces the base configuration.
func (b *Builder) WithConfig(config Config) *Builder {
	b.config = config
	return b
}

// WithEnvConfig overlays EDLINK_* environment variables on the base.
func (b *Builder) WithEnvConfig() *Builder {
	b.useEnv = true
	return b
}

// WithLookup replaces the environment lookup (useful for testing).
func (b *Builder) WithLookup(lookup func(string) (string, bool)) *Builder {
	b.lookup = lookup
	return b
}

// Build resolves the configuration. Invalid environment values are
// reported and leave the corresponding field at its base value.
func (b *Builder) Build() (Config, error) {
	config := b.config
	if !b.useEnv {
		return config, nil
	}

	var problems []string
	if v, ok := b.env(EnvLogLevel); ok {
		config.LogLevel = strings.ToLower(v)
	}
	if v, ok := b.env(EnvLogFormat); ok {
		switch f := strings.ToLower(v); f {
		case FormatText, FormatJSON:
			config.LogFormat = f
		default:
			problems = append(problems, fmt.Sprintf("%s: unknown format %q", EnvLogFormat, v))
		}
	}
	if v, ok := b.env(EnvBoolOnEOF); ok {
		policy, err := protocol.ParseEOFPolicy(strings.ToLower(v))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", EnvBoolOnEOF, err))
		} else {
			config.BoolOnEOF = policy
		}
	}
	if v, ok := b.env(EnvReadTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			problems = append(problems, fmt.Sprintf("%s: invalid duration %q", EnvReadTimeout, v))
		} else {
			config.ReadTimeout = d
		}
	}
	if v, ok := b.env(EnvMaxBlock); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			problems = append(problems, fmt.Sprintf("%s: invalid size %q", EnvMaxBlock, v))
		} else {
			config.MaxBlock = n
		}
	}

	if len(problems) > 0 {
		return config, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return config, nil
}

func (b *Builder) env(key string) (string, bool) {
	v, ok := b.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
