// file: internal/logger/logger.go
// version: 1.0.0
// guid: 3f1c9a52-7d0e-4b8a-9e61-2c4d8b7a5f10

package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level represents the severity of a log message
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the tag printed in front of each message.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel converts a config string into a Level. Unknown values map to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

var (
	mu       sync.RWMutex
	minLevel = InfoLevel
	std      = log.New(os.Stderr, "", log.LstdFlags)
)

// SetLevel sets the minimum level for every module logger.
func SetLevel(l Level) {
	mu.Lock()
	minLevel = l
	mu.Unlock()
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return minLevel
}

// SetOutput redirects all log output. Tests use this to capture messages.
func SetOutput(w io.Writer) {
	mu.Lock()
	std.SetOutput(w)
	mu.Unlock()
}

// Logger writes "[LEVEL] [module] message" lines through the standard log package.
type Logger struct {
	module string
}

// ForModule returns a logger that tags every line with module.
func ForModule(module string) *Logger {
	return &Logger{module: module}
}

// Module returns the tag this logger was created with.
func (l *Logger) Module() string {
	return l.module
}

func (l *Logger) logf(level Level, format string, args ...any) {
	mu.RLock()
	enabled := level >= minLevel
	out := std
	mu.RUnlock()
	if !enabled {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.module != "" {
		_ = out.Output(3, fmt.Sprintf("[%s] [%s] %s", level, l.module, msg))
		return
	}
	_ = out.Output(3, fmt.Sprintf("[%s] %s", level, msg))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...any) { l.logf(DebugLevel, format, args...) }

// Info logs an informational message
func (l *Logger) Info(format string, args ...any) { l.logf(InfoLevel, format, args...) }

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...any) { l.logf(WarnLevel, format, args...) }

// Error logs an error message
func (l *Logger) Error(format string, args ...any) { l.logf(ErrorLevel, format, args...) }
