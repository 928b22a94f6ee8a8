// Package pplog provides the leveled logger used by the service thread and
// by plugin error reporting: a severity enum plus a Logger exposing
// Debug/Info/Warning/Error/Fatal and their formatted variants, backed by a
// real structured logger instead of forwarding log calls over cgo to an
// external host.
package pplog

import (
	"os"

	"github.com/charmbracelet/log"
)

// Severity is a CLAP-style log-severity enum.
type Severity int32

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityFatal
)

// Logger is a thin wrapper. pkg/engine's per-block code does not call
// through this type; the one audio-thread caller is pkg/plugin's log hook,
// which forwards a plugin's non-Error messages through Log from inside the
// plugin's Run (Error messages go to the per-instance error slot instead).
type Logger struct {
	backend *log.Logger
	prefix  string
}

// New creates a logger writing to stderr with the given prefix (typically a
// component name such as "engine" or "worker").
func New(prefix string) *Logger {
	backend := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	return &Logger{backend: backend, prefix: prefix}
}

// With returns a child logger scoped to a sub-component, e.g.
// base.With("plugin:"+uri).
func (l *Logger) With(suffix string) *Logger {
	return &Logger{backend: l.backend, prefix: l.prefix + "." + suffix}
}

// SetDebug toggles debug-level output on this logger's shared backend. A
// child created via With shares the same backend, so enabling it on one
// affects every logger derived from the same New call.
func (l *Logger) SetDebug(enabled bool) {
	if enabled {
		l.backend.SetLevel(log.DebugLevel)
	} else {
		l.backend.SetLevel(log.InfoLevel)
	}
}

func (l *Logger) Debug(msg string)   { l.backend.Debug(msg) }
func (l *Logger) Info(msg string)    { l.backend.Info(msg) }
func (l *Logger) Warning(msg string) { l.backend.Warn(msg) }
func (l *Logger) Error(msg string)   { l.backend.Error(msg) }
func (l *Logger) Fatal(msg string)   { l.backend.Fatal(msg) }

func (l *Logger) Debugf(format string, args ...interface{})   { l.backend.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})    { l.backend.Infof(format, args...) }
func (l *Logger) Warningf(format string, args ...interface{}) { l.backend.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{})   { l.backend.Errorf(format, args...) }
func (l *Logger) Fatalf(format string, args ...interface{})   { l.backend.Fatalf(format, args...) }

// Log dispatches by Severity, a generic escape hatch for code that only
// has a numeric severity on hand (e.g. a plugin's own non-Error log call,
// which pkg/plugin forwards here rather than into its captured-error slot,
// see spec.md §4.3.3).
func (l *Logger) Log(sev Severity, format string, args ...interface{}) {
	switch sev {
	case SeverityDebug:
		l.Debugf(format, args...)
	case SeverityInfo:
		l.Infof(format, args...)
	case SeverityWarning:
		l.Warningf(format, args...)
	case SeverityError:
		l.Errorf(format, args...)
	case SeverityFatal:
		l.Fatalf(format, args...)
	default:
		l.Infof(format, args...)
	}
}
