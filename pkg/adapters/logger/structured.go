package logger

import (
	"io"

	"github.com/ideamans/go-l10n"
	"github.com/sirupsen/logrus"
	"github.com/user/framehost/pkg/ports"
)

// StructuredLogger emits one JSON object per message through logrus.
// Components and fields become JSON keys.
type StructuredLogger struct {
	entry *logrus.Entry
}

// NewStructured creates a JSON logger writing to w at the given level.
// LevelQuiet discards everything.
func NewStructured(level ports.LogLevel, w io.Writer) *StructuredLogger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetFormatter(&logrus.JSONFormatter{})
	if level == ports.LevelQuiet {
		base.SetOutput(io.Discard)
	}
	base.SetLevel(logrusLevel(level))
	return &StructuredLogger{entry: logrus.NewEntry(base)}
}

func logrusLevel(level ports.LogLevel) logrus.Level {
	switch level {
	case ports.LevelDebug:
		return logrus.DebugLevel
	case ports.LevelWarn:
		return logrus.WarnLevel
	case ports.LevelError, ports.LevelQuiet:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func (l *StructuredLogger) Debug(msg string, args ...interface{}) {
	l.entry.Debug(l10n.F(msg, args...))
}

func (l *StructuredLogger) Info(msg string, args ...interface{}) {
	l.entry.Info(l10n.F(msg, args...))
}

func (l *StructuredLogger) Warn(msg string, args ...interface{}) {
	l.entry.Warn(l10n.F(msg, args...))
}

func (l *StructuredLogger) Error(msg string, args ...interface{}) {
	l.entry.Error(l10n.F(msg, args...))
}

// WithComponent returns a logger tagging messages with "component".
func (l *StructuredLogger) WithComponent(component string) ports.Logger {
	return &StructuredLogger{entry: l.entry.WithField("component", component)}
}

// WithField returns a logger attaching key to every message.
func (l *StructuredLogger) WithField(key string, value interface{}) ports.Logger {
	return &StructuredLogger{entry: l.entry.WithField(key, value)}
}
