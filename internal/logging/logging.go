// Package logging builds the hclog loggers used by plugins and the host
// responder.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/term"

	"github.com/jmylchreest/edlink/internal/config"
)

// RootName is the name of the top-level logger.
const RootName = "edlink"

// New creates a logger writing to out at the configured level and format.
// Colour is enabled only when out is a terminal.
func New(cfg config.Config, out io.Writer) hclog.Logger {
	level := hclog.LevelFromString(cfg.LogLevel)
	if level == hclog.NoLevel {
		level = hclog.Warn
	}

	color := hclog.ColorOff
	if isTerminal(out) && cfg.LogFormat != config.FormatJSON {
		color = hclog.AutoColor
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       RootName,
		Output:     out,
		Level:      level,
		JSONFormat: cfg.LogFormat == config.FormatJSON,
		Color:      color,
	})
}

// Discard returns a logger that drops everything.
func Discard() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   RootName,
		Output: io.Discard,
		Level:  hclog.Off,
	})
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
