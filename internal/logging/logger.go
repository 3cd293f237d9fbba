package logging

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide structured logging with a
// consistent field vocabulary across the service.
type Logger struct {
	*slog.Logger
}

// New creates a new Logger with the specified log level and format.
// format can be "json" or "text" (default is json).
func New(level slog.Level, format string) *Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location for errors and above
		AddSource: level <= slog.LevelError,
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// Default returns the default logger (uses slog.Default).
func Default() *Logger {
	return &Logger{Logger: slog.Default()}
}

// With returns a new logger with the given attributes added.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// ParseLevel converts a string log level to slog.Level.
// Valid values: "debug", "info", "warn", "error".
// Returns slog.LevelInfo for invalid values.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefault sets the default logger for the application.
// This affects both slog.Default() and log package functions.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
