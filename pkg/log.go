package pkg

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Component identifies a subsystem for log filtering.
type Component string

// DBM component identifiers.
const (
	ComponentDBM      Component = "dbm"
	ComponentChannel  Component = "channel"
	ComponentEndpoint Component = "endpoint"
	ComponentProbe    Component = "probe"
	ComponentMMIO     Component = "mmio"
	ComponentGadget   Component = "gadget"
)

// LogFormat specifies the output format for logging.
type LogFormat int

// Log format options.
const (
	LogFormatText LogFormat = iota // Text format (default)
	LogFormatJSON                  // JSON format
)

var (
	// DefaultLogger is the logger used when a component is not given its own.
	DefaultLogger *slog.Logger

	// logLevel controls the minimum log level.
	logLevel = new(slog.LevelVar)

	// logMutex protects DefaultLogger.
	logMutex sync.RWMutex
)

func init() {
	logLevel.Set(slog.LevelWarn)
	DefaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// SetLogLevel sets the minimum level of the shared level variable.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// GetLogLevel returns the current minimum log level.
func GetLogLevel() slog.Level {
	return logLevel.Level()
}

// SetLogger replaces the default logger.
func SetLogger(logger *slog.Logger) {
	logMutex.Lock()
	defer logMutex.Unlock()
	DefaultLogger = logger
}

// SetLogFormat rebuilds the default logger on os.Stderr with the given format.
func SetLogFormat(format LogFormat) {
	SetLogger(newLogger(os.Stderr, format, nil))
}

// NewLogger creates a new text logger writing to w.
func NewLogger(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	return newLogger(w, LogFormatText, opts)
}

// NewJSONLogger creates a new JSON logger writing to w.
func NewJSONLogger(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	return newLogger(w, LogFormatJSON, opts)
}

func newLogger(w io.Writer, format LogFormat, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: logLevel}
	}
	if format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Logger returns the default logger tagged with component. The returned
// logger is a snapshot; later calls to SetLogger do not affect it.
func Logger(component Component) *slog.Logger {
	return Tag(nil, component)
}

// Tag returns logger tagged with component. A nil logger means the default
// logger.
func Tag(logger *slog.Logger, component Component) *slog.Logger {
	if logger == nil {
		logger = current()
	}
	return logger.With("component", string(component))
}

func current() *slog.Logger {
	logMutex.RLock()
	defer logMutex.RUnlock()
	return DefaultLogger
}

// LogDebug logs a debug message with the given component.
func LogDebug(component Component, msg string, args ...any) {
	current().Debug(msg, append([]any{"component", string(component)}, args...)...)
}

// LogInfo logs an info message with the given component.
func LogInfo(component Component, msg string, args ...any) {
	current().Info(msg, append([]any{"component", string(component)}, args...)...)
}

// LogWarn logs a warning message with the given component.
func LogWarn(component Component, msg string, args ...any) {
	current().Warn(msg, append([]any{"component", string(component)}, args...)...)
}

// LogError logs an error message with the given component.
func LogError(component Component, msg string, args ...any) {
	current().Error(msg, append([]any{"component", string(component)}, args...)...)
}
