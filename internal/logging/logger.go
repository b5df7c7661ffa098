// Package logging provides leveled, structured logging for ralph. Messages
// are formatted as "LEVEL: msg | key=value ..." and written to stderr by
// default; SetFile redirects output to a size-rotated log file so long loop
// runs don't grow without bound.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents a log level.
type Level int

const (
	// LevelDebug is for verbose debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for recoverable errors and warnings.
	LevelWarn
	// LevelError is for significant errors that may impact functionality.
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// Logger provides structured logging with context fields.
type Logger struct {
	mu       sync.RWMutex
	minLevel Level
	fields   map[string]any
	output   *log.Logger
}

var defaultLogger = New()

// New creates a new Logger writing to stderr at warn level.
func New() *Logger {
	return &Logger{
		minLevel: LevelWarn,
		fields:   make(map[string]any),
		output:   log.New(os.Stderr, "", log.LstdFlags),
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// SetWriter directs log output to w.
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = log.New(w, "", log.LstdFlags)
}

// SetFile directs log output to a rotating file at path. Rotation keeps
// three 10 MB files; older output is dropped.
func (l *Logger) SetFile(path string) {
	l.SetWriter(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
	})
}

// With returns a new Logger with an additional context field.
func (l *Logger) With(key string, value any) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fields := make(map[string]any, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value

	return &Logger{
		minLevel: l.minLevel,
		fields:   fields,
		output:   l.output,
	}
}

// log writes a log entry at the given level.
func (l *Logger) log(level Level, msg string, keyVals ...any) {
	l.mu.RLock()
	minLevel := l.minLevel
	output := l.output
	fields := l.fields
	l.mu.RUnlock()

	if level < minLevel {
		return
	}

	var sb strings.Builder
	sb.WriteString(levelNames[level])
	sb.WriteString(": ")
	sb.WriteString(msg)

	all := make(map[string]any, len(fields)+len(keyVals)/2)
	for k, v := range fields {
		all[k] = v
	}
	for i := 0; i+1 < len(keyVals); i += 2 {
		if key, ok := keyVals[i].(string); ok {
			all[key] = keyVals[i+1]
		}
	}

	if len(all) > 0 {
		sb.WriteString(" |")
		for k, v := range all {
			sb.WriteString(" ")
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(formatValue(v))
		}
	}

	output.Print(sb.String())
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, " \t\n") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case error:
		return fmt.Sprintf("%q", val.Error())
	default:
		return fmt.Sprint(v)
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, keyVals ...any) { l.log(LevelDebug, msg, keyVals...) }

// Info logs at info level.
func (l *Logger) Info(msg string, keyVals ...any) { l.log(LevelInfo, msg, keyVals...) }

// Warn logs at warn level (for recoverable errors).
func (l *Logger) Warn(msg string, keyVals ...any) { l.log(LevelWarn, msg, keyVals...) }

// Error logs at error level.
func (l *Logger) Error(msg string, keyVals ...any) { l.log(LevelError, msg, keyVals...) }

// Package-level functions that use the default logger.

// SetLevel sets the minimum log level for the default logger.
func SetLevel(level Level) { defaultLogger.SetLevel(level) }

// SetWriter directs default logger output to w.
func SetWriter(w io.Writer) { defaultLogger.SetWriter(w) }

// SetFile directs default logger output to a rotating file at path.
func SetFile(path string) { defaultLogger.SetFile(path) }

// With returns a new Logger with an additional context field.
func With(key string, value any) *Logger { return defaultLogger.With(key, value) }

// Debug logs at debug level using the default logger.
func Debug(msg string, keyVals ...any) { defaultLogger.Debug(msg, keyVals...) }

// Info logs at info level using the default logger.
func Info(msg string, keyVals ...any) { defaultLogger.Info(msg, keyVals...) }

// Warn logs at warn level using the default logger.
func Warn(msg string, keyVals ...any) { defaultLogger.Warn(msg, keyVals...) }

// Error logs at error level using the default logger.
func Error(msg string, keyVals ...any) { defaultLogger.Error(msg, keyVals...) }
