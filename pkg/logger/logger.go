// Package logger provides the process-wide zerolog logger.
//
// Call Init once at startup and Get anywhere afterwards. Levels, lowest first:
//
//	trace → debug → info → warn → error
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger behaviour at initialisation time.
type Options struct {
	// Level is the minimum log level. Unknown values mean "info".
	Level string
	// Pretty switches to coloured console output for local development.
	Pretty bool
	// Service is attached to every entry as the "service" field.
	Service string
	// Output defaults to os.Stdout.
	Output io.Writer
}

const defaultService = "identity-gateway"

var (
	instance    zerolog.Logger
	once        sync.Once
	initialized bool
)

// Init builds the singleton logger. Only the first call has any effect.
func Init(opts Options) zerolog.Logger {
	once.Do(func() {
		instance = build(opts)
		initialized = true
	})
	return instance
}

// Get returns the singleton logger. It panics if Init was never called.
func Get() zerolog.Logger {
	if !initialized {
		panic("logger: Get() called before Init()")
	}
	return instance
}

// Reset tears down the singleton so the next Init rebuilds it. Tests only.
func Reset() {
	once = sync.Once{}
	instance = zerolog.Logger{}
	initialized = false
}

func build(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: opts.Output != nil}
	}

	lvl := ParseLevel(opts.Level)
	if lvl < zerolog.GlobalLevel() {
		zerolog.SetGlobalLevel(lvl)
	}

	service := opts.Service
	if service == "" {
		service = defaultService
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// ParseLevel converts a LOG_LEVEL value to a zerolog.Level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
