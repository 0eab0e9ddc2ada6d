package plugin

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/edlink/internal/config"
	"github.com/jmylchreest/edlink/internal/logging"
)

// Option configures a Client or Session.
type Option func(*options)

type options struct {
	cfg    config.Config
	logger hclog.Logger
	output io.Writer
	envErr error
}

// Config holds the settings a Session or Client runs with. Start fills it
// from EDLINK_* environment variables over DefaultConfig.
type Config = config.Config

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return config.Default()
}

// WithConfig replaces the whole configuration, including anything read
// from the environment. Start from DefaultConfig and change what differs.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger. The default writes to stderr at the
// configured level.
func WithLogger(logger hclog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithEOFPolicy sets what boolean replies report when the editor hangs up.
func WithEOFPolicy(policy EOFPolicy) Option {
	return func(o *options) { o.cfg.BoolOnEOF = policy }
}

// WithMaxBlock bounds the size of blocks accepted from the editor. Zero
// lifts the limit.
func WithMaxBlock(n int) Option {
	return func(o *options) { o.cfg.MaxBlock = n }
}

// WithReadTimeout bounds each wait for the editor. It applies to sessions
// started on descriptors; zero waits forever.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) { o.cfg.ReadTimeout = d }
}

func withLogOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// resolveOptions applies opts over base. When env is set, EDLINK_*
// variables are read first.
func resolveOptions(env bool, opts []Option) *options {
	o := &options{cfg: config.Default(), output: os.Stderr}
	if env {
		o.cfg, o.envErr = config.NewBuilder().WithEnvConfig().Build()
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.New(o.cfg, o.output)
	}
	if o.envErr != nil {
		o.logger.Warn("ignoring invalid environment", "error", o.envErr)
	}
	return o
}
