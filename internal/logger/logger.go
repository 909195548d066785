// Package logger provides leveled logging for policyhelper.
// Messages go to stderr through zerolog: a coloured console writer when
// stderr is a terminal, JSON lines otherwise. The --verbose flag lowers
// the level to debug so the ingestion and ask pipelines can be followed.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Output formats.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu      sync.RWMutex
	verbose bool
	level   = zerolog.InfoLevel
	format  = FormatAuto
	output  io.Writer = os.Stderr
	base    = build()
)

// build creates the logger from the current settings (caller must hold mu).
func build() zerolog.Logger {
	w := output
	if useConsole(w) {
		w = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}
	lvl := level
	if verbose {
		lvl = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func useConsole(w io.Writer) bool {
	switch format {
	case FormatConsole:
		return true
	case FormatJSON:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Configure sets the minimum level ("debug", "info", "warn", "error")
// and the output format. Unknown levels keep info.
func Configure(lvl, fmtName string) {
	mu.Lock()
	defer mu.Unlock()
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(lvl)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	level = parsed
	switch fmtName {
	case FormatConsole, FormatJSON:
		format = fmtName
	default:
		format = FormatAuto
	}
	base = build()
}

// SetVerbose enables or disables debug logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build()
}

// Component returns a child logger tagged with the component name,
// for adapters that want structured fields.
func Component(name string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With().Str("component", name).Logger()
}

// Debug logs a message at debug level.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Debug().Msgf(format, args...)
}

// Section logs a pipeline stage header at debug level.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	base.Debug().Str("section", name).Msg("=== " + name + " ===")
}

// Info logs a message at info level.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Info().Msgf(format, args...)
}

// Warn logs a message at warn level.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Warn().Msgf(format, args...)
}

// Error logs a message at error level.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Error().Msgf(format, args...)
}
