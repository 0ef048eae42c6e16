package snapio

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// LogLevel is the severity of a log message.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelSuccess
	LevelWarning
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelSuccess:
		return "SUCCESS"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LogFormat selects the message prefix.
type LogFormat int

const (
	LogFormatSymbols LogFormat = iota // ● ◆ ✓ ▲ ✗
	LogFormatTagged                   // [DEBUG] [INFO] [SUCCESS] [WARN] [ERROR]
	LogFormatPlain                    // no prefix
)

var (
	symbolPrefixes = [...]string{"●", "◆", "✓", "▲", "✗"}
	taggedPrefixes = [...]string{"[DEBUG]", "[INFO]", "[SUCCESS]", "[WARN]", "[ERROR]"}
)

// Logger writes levelled, optionally colored messages through an IOManager.
type Logger struct {
	io           *IOManager
	format       LogFormat
	min          LogLevel
	withTime     bool
	timeFormat   string
	errorsStderr bool
	theme        Theme
	now          func() time.Time
}

// NewLogger returns a logger writing symbols, everything from debug up,
// warnings and errors to stderr.
func NewLogger(io *IOManager) *Logger {
	return &Logger{
		io:           io,
		format:       LogFormatSymbols,
		errorsStderr: true,
		timeFormat:   "15:04:05",
		theme:        DefaultTheme(io),
		now:          time.Now,
	}
}

func (l *Logger) WithFormat(format LogFormat) *Logger { l.format = format; return l }

// WithLevel drops messages below min.
func (l *Logger) WithLevel(min LogLevel) *Logger { l.min = min; return l }

func (l *Logger) WithTimestamp(enabled bool) *Logger { l.withTime = enabled; return l }

func (l *Logger) WithTimeFormat(format string) *Logger { l.timeFormat = format; return l }

// ErrorsToStderr controls whether warnings and errors go to the error
// stream.
func (l *Logger) ErrorsToStderr(enabled bool) *Logger { l.errorsStderr = enabled; return l }

func (l *Logger) WithTheme(theme Theme) *Logger { l.theme = theme; return l }

// Theme returns the logger's theme.
func (l *Logger) Theme() Theme { return l.theme }

// Log writes one message at level.
func (l *Logger) Log(level LogLevel, format string, args ...any) {
	if level < l.min {
		return
	}
	fmt.Fprintln(l.writer(level), l.line(level, fmt.Sprintf(format, args...)))
}

func (l *Logger) line(level LogLevel, msg string) string {
	if strings.TrimSpace(msg) == "" {
		return msg
	}

	parts := make([]string, 0, 3)
	switch l.format {
	case LogFormatSymbols:
		parts = append(parts, symbolPrefixes[level])
	case LogFormatTagged:
		parts = append(parts, taggedPrefixes[level])
	}
	if l.withTime {
		parts = append(parts, "["+l.now().Format(l.timeFormat)+"]")
	}
	parts = append(parts, msg)
	return l.style(level).Sprint(l.io, strings.Join(parts, " "))
}

func (l *Logger) style(level LogLevel) Style {
	switch level {
	case LevelDebug:
		return l.theme.Debug
	case LevelInfo:
		return l.theme.Info
	case LevelSuccess:
		return l.theme.Success
	case LevelWarning:
		return l.theme.Warning
	default:
		return l.theme.Error
	}
}

func (l *Logger) writer(level LogLevel) io.Writer {
	if l.errorsStderr && level >= LevelWarning {
		return l.io.Err()
	}
	return l.io.Out()
}

func (l *Logger) Debug(format string, args ...any)   { l.Log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)    { l.Log(LevelInfo, format, args...) }
func (l *Logger) Success(format string, args ...any) { l.Log(LevelSuccess, format, args...) }
func (l *Logger) Warning(format string, args ...any) { l.Log(LevelWarning, format, args...) }
func (l *Logger) Error(format string, args ...any)   { l.Log(LevelError, format, args...) }
