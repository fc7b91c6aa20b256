// Package log provides structured logging for shieldkit. It wraps
// github.com/rs/zerolog with per-module child loggers so each subsystem
// (access, ownable, ledger, ...) carries its own context.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger.
type Logger struct {
	inner zerolog.Logger
}

// defaultLogger is the process-wide logger used by the package-level
// convenience functions. Test binaries get a no-op logger.
var defaultLogger Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	defaultLogger = Logger{inner: zerolog.New(out).With().Timestamp().Logger()}

	if strings.HasSuffix(os.Args[0], ".test") {
		defaultLogger = Nop()
	}
}

// New creates a Logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level) Logger {
	return Logger{inner: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return Logger{inner: zerolog.Nop()}
}

// SetDefault replaces the package-level default logger.
func SetDefault(l Logger) {
	defaultLogger = l
}

// Default returns the current package-level default logger.
func Default() Logger {
	return defaultLogger
}

// Module returns a child logger with an additional "module" attribute. This
// is the primary way subsystems obtain their own contextual logger.
func (l Logger) Module(name string) Logger {
	return Logger{inner: l.inner.With().Str("module", name).Logger()}
}

// With returns a child logger with an additional key-value pair.
func (l Logger) With(key, value string) Logger {
	return Logger{inner: l.inner.With().Str(key, value).Logger()}
}

// Debug starts a debug-level event.
func (l Logger) Debug() *zerolog.Event { return l.inner.Debug() }

// Info starts an info-level event.
func (l Logger) Info() *zerolog.Event { return l.inner.Info() }

// Warn starts a warn-level event.
func (l Logger) Warn() *zerolog.Event { return l.inner.Warn() }

// Error starts an error-level event.
func (l Logger) Error() *zerolog.Event { return l.inner.Error() }
