// Package utils collects small stateless helpers shared across the engine:
// the Logger abstraction and RTT statistics.
package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// LogLevel controls which of a Logger's methods actually print.
type LogLevel uint8

const (
	// LogLevelNothing disables all logging.
	LogLevelNothing LogLevel = 0
	// LogLevelError enables Errorf.
	LogLevelError LogLevel = 1
	// LogLevelInfo enables Errorf and Infof.
	LogLevelInfo LogLevel = 2
	// LogLevelDebug enables Errorf, Infof and Debugf.
	LogLevelDebug LogLevel = 3
)

// logLevelEnv names the environment variable DefaultLogger's level falls
// back to when a Builder doesn't set one explicitly.
const logLevelEnv = "KWIK_LOG_LEVEL"

// Logger is the logging sink a connection is built with. Unlike quic-go's
// package-level logger, instances are per-connection so that a process
// driving many connections can tell them apart in its log output.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	// Debug reports whether Debugf will actually print, so callers can skip
	// building an expensive debug string when it won't be used.
	Debug() bool
	// WithPrefix returns a Logger that prepends prefix to every message,
	// used to tag per-connection or per-stream output.
	WithPrefix(prefix string) Logger
}

type defaultLogger struct {
	prefix     string
	level      LogLevel
	timeFormat string
	logger     *log.Logger
}

// DefaultLogger returns a Logger backed by the standard log package,
// writing to os.Stderr. Its level defaults to LogLevelNothing, or to the
// value of the KWIK_LOG_LEVEL environment variable if set.
func DefaultLogger() Logger {
	l := &defaultLogger{logger: log.New(os.Stderr, "", 0)}
	if env := os.Getenv(logLevelEnv); env != "" {
		if lvl, err := strconv.Atoi(env); err == nil {
			l.level = LogLevel(lvl)
		}
	}
	return l
}

// SetLogLevel returns a copy of l logging at level.
func SetLogLevel(l Logger, level LogLevel) Logger {
	d, ok := l.(*defaultLogger)
	if !ok {
		return l
	}
	clone := *d
	clone.level = level
	return &clone
}

// SetLogTimeFormat returns a copy of l that prefixes each line with the
// current time formatted per format. An empty format disables timestamps.
func SetLogTimeFormat(l Logger, format string) Logger {
	d, ok := l.(*defaultLogger)
	if !ok {
		return l
	}
	clone := *d
	clone.timeFormat = format
	return &clone
}

func (l *defaultLogger) WithPrefix(prefix string) Logger {
	clone := *l
	if l.prefix != "" {
		clone.prefix = l.prefix + " " + prefix
	} else {
		clone.prefix = prefix
	}
	return &clone
}

func (l *defaultLogger) Debug() bool { return l.level >= LogLevelDebug }

func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		l.logMessage(format, args...)
	}
}

func (l *defaultLogger) Infof(format string, args ...interface{}) {
	if l.level >= LogLevelInfo {
		l.logMessage(format, args...)
	}
}

func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	if l.level >= LogLevelError {
		l.logMessage(format, args...)
	}
}

func (l *defaultLogger) logMessage(format string, args ...interface{}) {
	msg := fmtPrefix(l.prefix) + fmt.Sprintf(format, args...)
	if l.timeFormat != "" {
		l.logger.Print(time.Now().Format(l.timeFormat) + " " + msg)
		return
	}
	l.logger.Print(msg)
}

func fmtPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return "[" + prefix + "] "
}
