// Package logger provides the small leveled logging surface the cluster
// client reports through: connection evictions, meta failover, and pull
// activity. Applications plug in their own implementation; the default is
// NopLogger.
package logger

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Level orders log lines by severity. A WriterLogger drops anything below
// its configured minimum.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// Logger is the logging interface every component of this module accepts.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	// WithPrefix returns a Logger whose lines are tagged with prefix, so
	// one stream can separate, say, the meta and data transports.
	WithPrefix(prefix string) Logger
}

// NopLogger discards everything. It is the default for components
// constructed without an explicit Logger.
var NopLogger Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) WithPrefix(string) Logger      { return NopLogger }

// WriterLogger writes one UTC-timestamped, level-tagged line per call to an
// io.Writer. Loggers derived via WithPrefix share the parent's writer and
// lock, so lines from different prefixes never interleave mid-line.
type WriterLogger struct {
	mu     *sync.Mutex
	w      io.Writer
	min    Level
	prefix string
	now    func() time.Time
}

var _ Logger = (*WriterLogger)(nil)

// New returns a WriterLogger emitting lines at or above min to w.
func New(w io.Writer, min Level) *WriterLogger {
	return &WriterLogger{
		mu:  &sync.Mutex{},
		w:   w,
		min: min,
		now: time.Now,
	}
}

func (l *WriterLogger) logf(level Level, format string, args ...interface{}) {
	if level < l.min {
		return
	}
	ts := l.now().UTC().Format("2006/01/02 15:04:05.000000")
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s %-5s %s"+format+"\n",
		append([]interface{}{ts, level, l.prefix}, args...)...)
}

func (l *WriterLogger) Debugf(format string, args ...interface{}) {
	l.logf(LevelDebug, format, args...)
}

func (l *WriterLogger) Infof(format string, args ...interface{}) {
	l.logf(LevelInfo, format, args...)
}

func (l *WriterLogger) Warnf(format string, args ...interface{}) {
	l.logf(LevelWarn, format, args...)
}

func (l *WriterLogger) Errorf(format string, args ...interface{}) {
	l.logf(LevelError, format, args...)
}

func (l *WriterLogger) WithPrefix(prefix string) Logger {
	return &WriterLogger{
		mu:     l.mu,
		w:      l.w,
		min:    l.min,
		prefix: l.prefix + prefix + " ",
		now:    l.now,
	}
}
