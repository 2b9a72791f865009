// Package debug provides logging and profiling for the curve plugin and its
// tooling. Logging is backed by loggo so every package gets its own named
// module logger whose level can be configured independently.
package debug

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	// LogLevelDebug is for detailed debugging information.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is for general informational messages.
	LogLevelInfo
	// LogLevelWarn is for warning messages.
	LogLevelWarn
	// LogLevelError is for error messages.
	LogLevelError
	// LogLevelOff disables all logging.
	LogLevelOff
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) loggo() loggo.Level {
	switch l {
	case LogLevelDebug:
		return loggo.DEBUG
	case LogLevelInfo:
		return loggo.INFO
	case LogLevelWarn:
		return loggo.WARNING
	case LogLevelError:
		return loggo.ERROR
	default:
		// Nothing in this module logs at CRITICAL, so this silences it.
		return loggo.CRITICAL
	}
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "TRACE":
		return LogLevelDebug, nil
	case "INFO", "":
		return LogLevelInfo, nil
	case "WARN", "WARNING":
		return LogLevelWarn, nil
	case "ERROR":
		return LogLevelError, nil
	case "OFF", "NONE":
		return LogLevelOff, nil
	}
	return LogLevelInfo, errors.NotValidf("log level %q", s)
}

// Logger is a printf-style logger for one module.
type Logger struct {
	logger loggo.Logger
}

// New returns the logger for module, e.g. "curvego.engine".
func New(module string) *Logger {
	return &Logger{logger: loggo.GetLogger(module)}
}

// Name returns the module name.
func (l *Logger) Name() string {
	return l.logger.Name()
}

// SetLevel sets the minimum level logged by this module.
func (l *Logger) SetLevel(level LogLevel) {
	l.logger.SetLogLevel(level.loggo())
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return level != LogLevelOff && l.logger.IsLevelEnabled(level.loggo())
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logger.Warningf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

// Format renders an entry as
// "2006-01-02 15:04:05.000 [LEVEL] [module] file:line: message".
func Format(entry loggo.Entry) string {
	var sb strings.Builder
	sb.WriteString(entry.Timestamp.Format("2006-01-02 15:04:05.000 "))
	fmt.Fprintf(&sb, "[%s] ", entry.Level)
	if entry.Module != "" {
		fmt.Fprintf(&sb, "[%s] ", entry.Module)
	}
	if entry.Filename != "" {
		fmt.Fprintf(&sb, "%s:%d: ", filepath.Base(entry.Filename), entry.Line)
	}
	sb.WriteString(strings.TrimSuffix(entry.Message, "\n"))
	return sb.String()
}

// Global logger functions

var defaultLogger = New("curvego")

// Default returns the root logger of the module tree.
func Default() *Logger {
	return defaultLogger
}

// SetOutput sends all log output to w.
func SetOutput(w io.Writer) error {
	_, err := loggo.ReplaceDefaultWriter(loggo.NewSimpleWriter(w, Format))
	return errors.Trace(err)
}

// SetLevel sets the minimum level for every curvego module.
func SetLevel(level LogLevel) {
	defaultLogger.SetLevel(level)
}

// Configure applies a loggo specification such as
// "curvego=INFO;curvego.render=DEBUG".
func Configure(spec string) error {
	return errors.Annotatef(loggo.ConfigureLoggers(spec), "cannot configure loggers %q", spec)
}

// Debug logs a debug message using the default logger.
func Debug(format string, args ...interface{}) {
	defaultLogger.Debug(format, args...)
}

// Info logs an informational message using the default logger.
func Info(format string, args ...interface{}) {
	defaultLogger.Info(format, args...)
}

// Warn logs a warning message using the default logger.
func Warn(format string, args ...interface{}) {
	defaultLogger.Warn(format, args...)
}

// Error logs an error message using the default logger.
func Error(format string, args ...interface{}) {
	defaultLogger.Error(format, args...)
}
