// Package core provides the ambient services shared by every forwarder
// component: levelled logging, counters, and configuration.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

// Level is a logging severity, extending slog's levels with Trace and Fatal
// the same way the teacher's std/log package does.
type Level int

const (
	LevelTrace Level = -8
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
	LevelFatal Level = 12
)

// ParseLevel parses a textual level name.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	}
	return LevelInfo, fmt.Errorf("invalid log level: %s", s)
}

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Logger wraps an slog.Logger with the component-tagged call shape used
// throughout the forwarder: Log.Debug(self, "msg", "k", v, ...).
type Logger struct {
	level atomic.Int64
	inner *slog.Logger
}

var std = NewLogger(LevelInfo)

// Log is the process-wide default logger, mirroring the teacher's
// package-level core.Log singleton.
var Log = std

// NewLogger builds a Logger writing to stderr at the given level.
func NewLogger(level Level) *Logger {
	l := &Logger{inner: slog.New(slog.NewTextHandler(os.Stderr, nil))}
	l.level.Store(int64(level))
	return l
}

// SetLevel changes the minimum level that is emitted.
func (l *Logger) SetLevel(level Level) { l.level.Store(int64(level)) }

// Level returns the current minimum emitted level.
func (l *Logger) Level() Level { return Level(l.level.Load()) }

func (l *Logger) enabled(level Level) bool { return level >= l.Level() }

func moduleName(self any) string {
	if s, ok := self.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", self)
}

func (l *Logger) log(level Level, self any, msg string, kv ...any) {
	if !l.enabled(level) {
		return
	}
	args := make([]any, 0, len(kv)+2)
	args = append(args, "module", moduleName(self))
	args = append(args, kv...)
	l.inner.Log(context.Background(), slog.Level(level), msg, args...)
}

func (l *Logger) Trace(self any, msg string, kv ...any) { l.log(LevelTrace, self, msg, kv...) }
func (l *Logger) Debug(self any, msg string, kv ...any) { l.log(LevelDebug, self, msg, kv...) }
func (l *Logger) Info(self any, msg string, kv ...any)  { l.log(LevelInfo, self, msg, kv...) }
func (l *Logger) Warn(self any, msg string, kv ...any)  { l.log(LevelWarn, self, msg, kv...) }
func (l *Logger) Error(self any, msg string, kv ...any) { l.log(LevelError, self, msg, kv...) }

// Fatal logs at FATAL and terminates the process; reserved for
// configuration/bind failures per spec.md §7 propagation policy.
func (l *Logger) Fatal(self any, msg string, kv ...any) {
	l.log(LevelFatal, self, msg, kv...)
	os.Exit(1)
}

// HasTrace reports whether the default logger would emit Trace records,
// letting call sites skip building expensive debug payloads.
func HasTrace() bool { return std.Level() <= LevelTrace }
