// Package logging provides structured logging for the wallet insight service.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"time"
)

// Level represents the severity of a log message
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// Format represents the output format for logs
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
	LevelFatal: 4,
}

// Logger emits leveled, structured log entries
type Logger struct {
	level  Level
	format Format
	output io.Writer
	fields map[string]interface{}
}

type entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// New creates a logger writing to stdout
func New(level Level, format Format) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: os.Stdout,
		fields: make(map[string]interface{}),
	}
}

// WithField returns a child logger with one extra field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a child logger with extra fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	child := &Logger{
		level:  l.level,
		format: l.format,
		output: l.output,
		fields: make(map[string]interface{}, len(l.fields)+len(fields)),
	}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for k, v := range fields {
		child.fields[k] = v
	}
	return child
}

// WithError returns a child logger carrying an error field
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

func (l *Logger) Debug(msg string)                          { l.emit(LevelDebug, msg) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.emit(LevelDebug, fmt.Sprintf(format, args...)) }
func (l *Logger) Info(msg string)                           { l.emit(LevelInfo, msg) }
func (l *Logger) Infof(format string, args ...interface{})  { l.emit(LevelInfo, fmt.Sprintf(format, args...)) }
func (l *Logger) Warn(msg string)                           { l.emit(LevelWarn, msg) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.emit(LevelWarn, fmt.Sprintf(format, args...)) }
func (l *Logger) Error(msg string)                          { l.emit(LevelError, msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.emit(LevelError, fmt.Sprintf(format, args...)) }

// Fatal logs at fatal level and exits
func (l *Logger) Fatal(msg string) {
	l.emit(LevelFatal, msg)
	os.Exit(1)
}

func (l *Logger) emit(level Level, msg string) {
	if levelRank[level] < levelRank[l.level] {
		return
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   msg,
		Fields:    l.fields,
	}
	if len(e.Fields) == 0 {
		e.Fields = nil
	}

	// Caller info only for error and above
	if levelRank[level] >= levelRank[LevelError] {
		if _, file, line, ok := runtime.Caller(2); ok {
			e.Caller = fmt.Sprintf("%s:%d", file, line)
		}
	}

	var out string
	if l.format == FormatJSON {
		b, _ := json.Marshal(e)
		out = string(b)
	} else {
		out = fmt.Sprintf("[%s] %s: %s", e.Timestamp, e.Level, e.Message)
		if e.Fields != nil {
			b, _ := json.Marshal(e.Fields)
			out += " fields=" + string(b)
		}
		if e.Caller != "" {
			out += " caller=" + e.Caller
		}
	}

	fmt.Fprintln(l.output, out)
}

// Global logger

var globalLogger *Logger

// Init initializes the global logger
func Init(level Level, format Format) {
	globalLogger = New(level, format)
}

// Global returns the global logger, creating a default one if needed
func Global() *Logger {
	if globalLogger == nil {
		globalLogger = New(LevelInfo, FormatJSON)
	}
	return globalLogger
}

type loggerKey struct{}

// WithLogger attaches a logger to the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext retrieves the logger from the context, falling back to the
// global logger
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return logger
	}
	return Global()
}

// ParseLevel parses a string into a Level
func ParseLevel(level string) Level {
	switch level {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		log.Printf("Unknown log level '%s', defaulting to 'info'", level)
		return LevelInfo
	}
}

// ParseFormat parses a string into a Format
func ParseFormat(format string) Format {
	switch format {
	case "text":
		return FormatText
	case "json":
		return FormatJSON
	default:
		log.Printf("Unknown log format '%s', defaulting to 'json'", format)
		return FormatJSON
	}
}
