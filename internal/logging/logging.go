// Package logging provides the structured logger used throughout upowerd,
// in the style of the conservation-daemon/aerion family of power-aware
// background services: one zerolog.Logger per component, obtained with
// WithComponent, logged through the usual Debug()/Info()/Warn().Msg chain.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.Mutex
	base    = zerolog.New(defaultWriter()).With().Timestamp().Logger()
	current = zerolog.InfoLevel
)

func defaultWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
}

// SetLevel adjusts the global minimum log level. Daemon construction wires
// this to internal/config's Verbose knob, the Go equivalent of the
// original dkp-debug.c verbosity switch.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	current = level
}

// SetOutput redirects all future loggers to w. Intended for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = zerolog.New(w).With().Timestamp().Logger()
}

// WithComponent returns a logger tagged with the given component name,
// e.g. logging.WithComponent("daemon"), logging.WithComponent("history").
func WithComponent(name string) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base.Level(current).With().Str("component", name).Logger()
}
