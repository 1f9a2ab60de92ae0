// Package logger provides the process-wide structured logger. It wraps
// log/slog with a package-level API so call sites stay terse, and supports
// runtime level changes. Text output goes through ColorTextHandler, which
// colors levels and keys when stdout is a terminal.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Config holds logger configuration.
type Config struct {
	Level  string // DEBUG, INFO, WARN/WARNING, ERROR
	Format string // text, json
}

var (
	mu       sync.RWMutex
	levelVar = new(slog.LevelVar)
	useColor = isatty.IsTerminal(os.Stdout.Fd())
	slogger  = slog.New(NewColorTextHandler(os.Stdout, &slog.HandlerOptions{Level: levelVar}, useColor))
)

// ParseLevel maps a level name to a slog.Level. WARNING is accepted as an
// alias of WARN.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Init configures the global logger. Safe to call again to reconfigure.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	levelVar.Set(level)
	opts := &slog.HandlerOptions{Level: levelVar}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text", "":
		handler = NewColorTextHandler(os.Stdout, opts, useColor)
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	slogger = slog.New(handler)
	return nil
}

// SetLevel changes the minimum level without rebuilding the handler.
func SetLevel(level slog.Level) {
	levelVar.Set(level)
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// Debug logs at DEBUG level with alternating key/value pairs.
func Debug(msg string, args ...any) { current().Debug(msg, args...) }

// Info logs at INFO level with alternating key/value pairs.
func Info(msg string, args ...any) { current().Info(msg, args...) }

// Warn logs at WARN level with alternating key/value pairs.
func Warn(msg string, args ...any) { current().Warn(msg, args...) }

// Error logs at ERROR level with alternating key/value pairs.
func Error(msg string, args ...any) { current().Error(msg, args...) }
