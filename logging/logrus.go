package logging

import "github.com/sirupsen/logrus"

// LogrusAdapter wraps a logrus.FieldLogger to implement the Logger interface.
type LogrusAdapter struct {
	logger logrus.FieldLogger
}

// NewLogrusAdapter creates a Logger from a logrus logger or entry.
func NewLogrusAdapter(logger logrus.FieldLogger) Logger {
	return &LogrusAdapter{logger: logger}
}

func (l *LogrusAdapter) entry(args []any) *logrus.Entry {
	return l.logger.WithFields(logrus.Fields(fields(args)))
}

// Debug logs a debug message.
func (l *LogrusAdapter) Debug(msg string, args ...any) { l.entry(args).Debug(msg) }

// Info logs an informational message.
func (l *LogrusAdapter) Info(msg string, args ...any) { l.entry(args).Info(msg) }

// Warn logs a warning message.
func (l *LogrusAdapter) Warn(msg string, args ...any) { l.entry(args).Warn(msg) }

// Error logs an error message.
func (l *LogrusAdapter) Error(msg string, args ...any) { l.entry(args).Error(msg) }

// LogrusLevel maps a LogLevel onto the logrus level.
func LogrusLevel(l LogLevel) logrus.Level {
	switch l {
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	case LogLevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
