// Package ldlog is the level-gated logging facade used throughout the module. The core never
// depends on a concrete logging backend: callers plug in a BaseLogger (anything with
// Println/Printf, which log.Logger already satisfies) or one of the adapters in this package.
// Grounded on the SDK's go-sdk-common/v3/ldlog package.
package ldlog

import (
	"log"
	"os"
)

// BaseLogger is the minimal sink a Loggers level writes to.
type BaseLogger interface {
	Println(values ...interface{})
	Printf(format string, values ...interface{})
}

// LogLevel is one of the four output thresholds, from Debug (most verbose) to Error.
type LogLevel int

// The four log levels plus None, which disables output entirely.
const (
	_ LogLevel = iota
	Debug
	Info
	Warn
	Error
	None
)

func (level LogLevel) String() string {
	switch level {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	case None:
		return "NONE"
	default:
		return "?"
	}
}

// Loggers is a configurable set of four level-gated loggers sharing one minimum-level filter.
// The zero value is usable but produces no output until Init, SetBaseLogger, or SetMinLevel is
// called.
type Loggers struct {
	base     BaseLogger
	minLevel LogLevel
	prefix   string
	inited   bool
}

// NewDefaultLoggers returns a Loggers writing to stderr at Info level and above.
func NewDefaultLoggers() Loggers {
	l := Loggers{}
	l.ensureInited()
	return l
}

// NewDisabledLoggers returns a Loggers that never produces output.
func NewDisabledLoggers() Loggers {
	l := Loggers{}
	l.ensureInited()
	l.minLevel = None
	return l
}

func (l *Loggers) ensureInited() {
	if l.inited {
		return
	}
	l.minLevel = Info
	l.base = log.New(os.Stderr, "", log.LstdFlags)
	l.inited = true
}

// Init lazily applies defaults if no Set method has been called yet.
func (l *Loggers) Init() { l.ensureInited() }

// SetBaseLogger sets the destination for all four levels.
func (l *Loggers) SetBaseLogger(base BaseLogger) {
	l.ensureInited()
	if base != nil {
		l.base = base
	}
}

// SetMinLevel sets the minimum level that produces output.
func (l *Loggers) SetMinLevel(level LogLevel) {
	l.ensureInited()
	l.minLevel = level
}

// SetPrefix sets a string inserted between the level tag and the message.
func (l *Loggers) SetPrefix(prefix string) {
	l.ensureInited()
	l.prefix = prefix
}

// GetMinLevel returns the current minimum level.
func (l Loggers) GetMinLevel() LogLevel {
	if l.minLevel == 0 {
		return Info
	}
	return l.minLevel
}

// IsDebugEnabled reports whether Debug-level messages are currently emitted.
func (l Loggers) IsDebugEnabled() bool { return l.GetMinLevel() <= Debug }

func (l Loggers) log(level LogLevel, values []interface{}) {
	if level < l.GetMinLevel() || l.base == nil {
		return
	}
	prefix := "[" + level.String() + "]"
	if l.prefix != "" {
		prefix += " " + l.prefix
	}
	args := append([]interface{}{prefix}, values...)
	l.base.Println(args...)
}

func (l Loggers) logf(level LogLevel, format string, args []interface{}) {
	if level < l.GetMinLevel() || l.base == nil {
		return
	}
	prefix := "[" + level.String() + "]"
	if l.prefix != "" {
		prefix += " " + l.prefix
	}
	l.base.Printf(prefix+" "+format, args...)
}

func (l Loggers) Debug(values ...interface{})                 { l.log(Debug, values) }
func (l Loggers) Debugf(format string, values ...interface{}) { l.logf(Debug, format, values) }
func (l Loggers) Info(values ...interface{})                  { l.log(Info, values) }
func (l Loggers) Infof(format string, values ...interface{})  { l.logf(Info, format, values) }
func (l Loggers) Warn(values ...interface{})                  { l.log(Warn, values) }
func (l Loggers) Warnf(format string, values ...interface{})  { l.logf(Warn, format, values) }
func (l Loggers) Error(values ...interface{})                 { l.log(Error, values) }
func (l Loggers) Errorf(format string, values ...interface{}) { l.logf(Error, format, values) }
