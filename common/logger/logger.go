package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger provides a unified logging interface for the retrieval/crawl backend.
// All packages log through the package-level functions so tests can swap the
// output or silence it entirely.

var log = newLogger(os.Stderr, "console")

// Options configures the process-wide logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	Output io.Writer
}

// Setup reconfigures the process-wide logger. Call once at startup.
func Setup(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	log = newLogger(out, opts.Format)
	zerolog.SetGlobalLevel(parseLevel(opts.Level))
}

// Silence discards all log output. Useful in tests.
func Silence() {
	log = newLogger(io.Discard, "json")
}

func newLogger(out io.Writer, format string) zerolog.Logger {
	var zl zerolog.Logger
	if format == "json" {
		zl = zerolog.New(out)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return zl.With().Timestamp().Str("service", "phonerag").Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) {
	log.Debug().Msgf(format, args...)
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	log.Info().Msgf(format, args...)
}

// Warnf logs a warning message.
func Warnf(format string, args ...interface{}) {
	log.Warn().Msgf(format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	log.Error().Msgf(format, args...)
}
