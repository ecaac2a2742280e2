// Package ports defines the interfaces through which the host talks to
// plugins, frame sources, outputs, the filesystem and the log.
package ports

import "fmt"

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug is for per-frame details inside a stage.
	LevelDebug LogLevel = iota
	// LevelInfo is for stream lifecycle messages.
	LevelInfo
	// LevelWarn is for recoverable problems such as arity violations.
	LevelWarn
	// LevelError is for faults that end a stream.
	LevelError
	// LevelQuiet suppresses all log output.
	LevelQuiet
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelQuiet:
		return "quiet"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a level name. Unknown names fall back to LevelInfo
// and are reported through the error.
func ParseLogLevel(s string) (LogLevel, error) {
	switch s {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "quiet":
		return LevelQuiet, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger abstracts logging. Messages are l10n keys with printf arguments.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that tags messages with a component
	// name such as "stage" or "negotiate".
	WithComponent(component string) Logger

	// WithField returns a Logger that attaches a key/value pair to every
	// message, e.g. the stream id.
	WithField(key string, value interface{}) Logger
}
