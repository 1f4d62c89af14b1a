package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is an alias used by services for dependency injection.
type Logger = zerolog.Logger

// New returns a console logger tagged with the service name.
func New(service string) Logger {
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02T15:04:05.000000Z07:00"}
	return zerolog.New(out).With().Timestamp().Str("service", service).Logger()
}

// Nop returns a logger that discards everything. Used by tests and library defaults.
func Nop() Logger {
	return zerolog.Nop()
}

// SetLevel applies a textual level globally; unknown values fall back to info.
func SetLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return lvl
}
