// Package holonlog provides structured logging for the holon engine,
// scoped to the engine's own concerns (transaction, holon, space, dance)
// rather than a generic node/service/task label set.
package holonlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level is a logging verbosity, named to match zerolog's levels.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

var zerologLevels = map[Level]zerolog.Level{
	DebugLevel: zerolog.DebugLevel,
	InfoLevel:  zerolog.InfoLevel,
	WarnLevel:  zerolog.WarnLevel,
	ErrorLevel: zerolog.ErrorLevel,
}

// Config selects the global logger's verbosity, encoding, and sink.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// root is the process-wide base every Scope is derived from.
var root zerolog.Logger

// Init (re)configures the global logger. Safe to call more than once — a
// binary typically calls it once with a flag-derived Level before any
// config file is read, then again once the file's LogLevel/LogJSON settle.
func Init(cfg Config) {
	level, ok := zerologLevels[cfg.Level]
	if !ok {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if !cfg.JSONOutput {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	root = zerolog.New(out).With().Timestamp().Logger()
}

// Scope is a child logger narrowed to one or more of the engine's own
// identifiers. Call sites stack whichever of them they have in hand, e.g.
// WithComponent("commit").WithTxID(txID), rather than picking from a fixed
// tuple of fields set once at construction.
type Scope struct {
	zerolog.Logger
}

// WithComponent starts a Scope tagged with the subsystem that produced it
// (cache, nursery, dance, dancetransport, commit, ...).
func WithComponent(component string) Scope {
	return Scope{root.With().Str("component", component).Logger()}
}

// WithTxID starts a new Scope from the root logger, scoped to one open
// transaction; Scope.WithTxID narrows an existing Scope instead.
func WithTxID(txID uint64) Scope {
	return Scope{root.With().Uint64("tx_id", txID).Logger()}
}

// WithHolonID starts a new Scope from the root logger, scoped to one holon.
func WithHolonID(holonID string) Scope {
	return Scope{root.With().Str("holon_id", holonID).Logger()}
}

// WithSpaceID starts a new Scope from the root logger, scoped to one holon
// space.
func WithSpaceID(spaceID string) Scope {
	return Scope{root.With().Str("space_id", spaceID).Logger()}
}

// WithTxID narrows an existing Scope to one open transaction.
func (s Scope) WithTxID(txID uint64) Scope {
	return Scope{s.Logger.With().Uint64("tx_id", txID).Logger()}
}

// WithHolonID narrows an existing Scope to one holon.
func (s Scope) WithHolonID(holonID string) Scope {
	return Scope{s.Logger.With().Str("holon_id", holonID).Logger()}
}

// WithSpaceID narrows an existing Scope to one holon space.
func (s Scope) WithSpaceID(spaceID string) Scope {
	return Scope{s.Logger.With().Str("space_id", spaceID).Logger()}
}

// WithDance narrows an existing Scope to one in-flight dance request,
// the field the dispatch layer tags every request/response log line with.
func (s Scope) WithDance(danceName string) Scope {
	return Scope{s.Logger.With().Str("dance", danceName).Logger()}
}

func Info(msg string) { root.Info().Msg(msg) }

func Debug(msg string) { root.Debug().Msg(msg) }

func Warn(msg string) { root.Warn().Msg(msg) }

func Error(msg string) { root.Error().Msg(msg) }

func Errorf(format string, err error) { root.Error().Err(err).Msg(format) }

func Fatal(msg string) { root.Fatal().Msg(msg) }

func init() {
	Init(Config{Level: InfoLevel})
}
