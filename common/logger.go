package common

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Severity represents log message severity levels
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity maps a severity name (as printed by String) back to its value.
func ParseSeverity(name string) (Severity, bool) {
	for s := SeverityDebug; s <= SeverityError; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return SeverityInfo, false
}

// Logger interface defines the logging contract for the decoder and the
// control client.
type Logger interface {
	// Log logs a message with the specified severity
	Log(severity Severity, msg string)

	// Logf logs a formatted message with the specified severity
	Logf(severity Severity, format string, args ...interface{})

	// Error logs an error
	Error(err error)

	Debug(msg string)
	Info(msg string)
	Warning(msg string)
}

// StdLogger implements Logger on top of the standard library log package.
// Debug, info and warning lines go to one writer, errors to another.
type StdLogger struct {
	loggers   [SeverityError + 1]*log.Logger
	minLevel  Severity
	component string
}

// NewStdLogger creates a logger writing to stdout and stderr.
func NewStdLogger(minLevel Severity) *StdLogger {
	return NewStdLoggerWithWriter(os.Stdout, os.Stderr, minLevel)
}

// NewStdLoggerWithWriter creates a logger with custom writers.
func NewStdLoggerWithWriter(stdout, stderr io.Writer, minLevel Severity) *StdLogger {
	l := &StdLogger{minLevel: minLevel}
	l.loggers[SeverityDebug] = log.New(stdout, "DEBUG: ", log.Ltime|log.Lshortfile)
	l.loggers[SeverityInfo] = log.New(stdout, "INFO: ", log.Ltime)
	l.loggers[SeverityWarning] = log.New(stdout, "WARNING: ", log.Ltime)
	l.loggers[SeverityError] = log.New(stderr, "ERROR: ", log.Ltime|log.Lshortfile)
	return l
}

// WithComponent returns a logger sharing the same outputs whose messages are
// prefixed with "[name] ".
func (l *StdLogger) WithComponent(name string) *StdLogger {
	c := *l
	c.component = name
	return &c
}

// MinLevel returns the lowest severity that is written.
func (l *StdLogger) MinLevel() Severity {
	return l.minLevel
}

func (l *StdLogger) Log(severity Severity, msg string) {
	if severity < l.minLevel || severity < SeverityDebug || severity > SeverityError {
		return
	}
	if l.component != "" {
		msg = "[" + l.component + "] " + msg
	}
	l.loggers[severity].Output(2, msg)
}

func (l *StdLogger) Logf(severity Severity, format string, args ...interface{}) {
	if severity < l.minLevel {
		return
	}
	l.Log(severity, fmt.Sprintf(format, args...))
}

func (l *StdLogger) Error(err error) {
	if err != nil {
		l.Log(SeverityError, err.Error())
	}
}

func (l *StdLogger) Debug(msg string) {
	l.Log(SeverityDebug, msg)
}

func (l *StdLogger) Info(msg string) {
	l.Log(SeverityInfo, msg)
}

func (l *StdLogger) Warning(msg string) {
	l.Log(SeverityWarning, msg)
}

// NoOpLogger is a logger that doesn't log anything
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-op logger
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Log(severity Severity, msg string)                          {}
func (l *NoOpLogger) Logf(severity Severity, format string, args ...interface{}) {}
func (l *NoOpLogger) Error(err error)                                            {}
func (l *NoOpLogger) Debug(msg string)                                           {}
func (l *NoOpLogger) Info(msg string)                                            {}
func (l *NoOpLogger) Warning(msg string)                                         {}
