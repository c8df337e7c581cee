package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync/atomic"
)

// Level is the minimum severity a Logger emits.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

// String returns the lower-case level name
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelOff:
		return "off"
	default:
		return fmt.Sprintf("level(%d)", int32(l))
	}
}

// ParseLevel converts a level name (case-insensitive) into a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "off", "none":
		return LevelOff, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger provides leveled logging for cells and worker managers.
// This abstraction allows swapping logging implementations
type Logger interface {
	// Error logs an error message
	Error(args ...interface{})

	// Errorf logs a formatted error message
	Errorf(format string, args ...interface{})

	// Warn logs a warning message
	Warn(args ...interface{})

	// Warnf logs a formatted warning message
	Warnf(format string, args ...interface{})

	// Info logs an informational message
	Info(args ...interface{})

	// Infof logs a formatted informational message
	Infof(format string, args ...interface{})

	// Debug logs a debug message
	Debug(args ...interface{})

	// Debugf logs a formatted debug message
	Debugf(format string, args ...interface{})

	// WithFields returns a Logger that appends fields to every message
	WithFields(fields map[string]interface{}) Logger
}

// defaultLogger implements Logger using Go's standard log package
type defaultLogger struct {
	errorLogger *log.Logger
	warnLogger  *log.Logger
	infoLogger  *log.Logger
	debugLogger *log.Logger
	level       *atomic.Int32
	fields      string
}

// NewDefaultLogger creates a logger writing errors and warnings to stderr and
// info/debug to stdout, emitting LevelInfo and above
func NewDefaultLogger() Logger {
	return NewLogger(os.Stderr, os.Stdout, LevelInfo)
}

// NewLogger creates a logger with explicit sinks and minimum level
func NewLogger(errOut, out io.Writer, level Level) Logger {
	lvl := &atomic.Int32{}
	lvl.Store(int32(level))
	return &defaultLogger{
		errorLogger: log.New(errOut, "[ERROR] ", log.LstdFlags|log.Lshortfile),
		warnLogger:  log.New(errOut, "[WARN] ", log.LstdFlags|log.Lshortfile),
		infoLogger:  log.New(out, "[INFO] ", log.LstdFlags|log.Lshortfile),
		debugLogger: log.New(out, "[DEBUG] ", log.LstdFlags|log.Lshortfile),
		level:       lvl,
	}
}

func (l *defaultLogger) enabled(level Level) bool {
	return Level(l.level.Load()) <= level
}

func (l *defaultLogger) output(lg *log.Logger, msg string) {
	if l.fields != "" {
		msg = msg + " " + l.fields
	}
	_ = lg.Output(4, msg)
}

// Error logs an error message
func (l *defaultLogger) Error(args ...interface{}) {
	if l.enabled(LevelError) {
		l.output(l.errorLogger, fmt.Sprint(args...))
	}
}

// Errorf logs a formatted error message
func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(LevelError) {
		l.output(l.errorLogger, fmt.Sprintf(format, args...))
	}
}

// Warn logs a warning message
func (l *defaultLogger) Warn(args ...interface{}) {
	if l.enabled(LevelWarn) {
		l.output(l.warnLogger, fmt.Sprint(args...))
	}
}

// Warnf logs a formatted warning message
func (l *defaultLogger) Warnf(format string, args ...interface{}) {
	if l.enabled(LevelWarn) {
		l.output(l.warnLogger, fmt.Sprintf(format, args...))
	}
}

// Info logs an informational message
func (l *defaultLogger) Info(args ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(l.infoLogger, fmt.Sprint(args...))
	}
}

// Infof logs a formatted informational message
func (l *defaultLogger) Infof(format string, args ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(l.infoLogger, fmt.Sprintf(format, args...))
	}
}

// Debug logs a debug message
func (l *defaultLogger) Debug(args ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(l.debugLogger, fmt.Sprint(args...))
	}
}

// Debugf logs a formatted debug message
func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(l.debugLogger, fmt.Sprintf(format, args...))
	}
}

// WithFields returns a child logger sharing sinks and level.
// Fields are rendered sorted by key so output is stable.
func (l *defaultLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return l
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(l.fields)
	for _, k := range keys {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, fields[k])
	}

	child := *l
	child.fields = b.String()
	return &child
}

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Error(...interface{})                       {}
func (nopLogger) Errorf(string, ...interface{})              {}
func (nopLogger) Warn(...interface{})                        {}
func (nopLogger) Warnf(string, ...interface{})               {}
func (nopLogger) Info(...interface{})                        {}
func (nopLogger) Infof(string, ...interface{})               {}
func (nopLogger) Debug(...interface{})                       {}
func (nopLogger) Debugf(string, ...interface{})              {}
func (n nopLogger) WithFields(map[string]interface{}) Logger { return n }
