// Package logger is a small leveled logger over the standard log package.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level orders log severities; messages below the logger's level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" and "error" to a Level.
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
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger writes prefixed lines per level.
type Logger struct {
	level    Level
	debugLog *log.Logger
	infoLog  *log.Logger
	warnLog  *log.Logger
	errorLog *log.Logger
	file     *os.File
}

// New creates a Logger writing to out at the given level.
func New(out io.Writer, level Level) *Logger {
	flags := log.Ldate | log.Ltime

	return &Logger{
		level:    level,
		debugLog: log.New(out, "DEBUG: ", flags),
		infoLog:  log.New(out, "INFO: ", flags),
		warnLog:  log.New(out, "WARN: ", flags),
		errorLog: log.New(out, "ERROR: ", flags),
	}
}

// NewFile creates a Logger that writes to stderr and appends to filename.
func NewFile(filename string, level Level) (*Logger, error) {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filename, err)
	}

	l := New(io.MultiWriter(os.Stderr, f), level)
	l.file = f

	return l, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}

	return l.file.Close()
}

// Level returns the minimum level written.
func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) Debugf(format string, v ...any) {
	if l.level <= LevelDebug {
		l.debugLog.Printf(format, v...)
	}
}

func (l *Logger) Infof(format string, v ...any) {
	if l.level <= LevelInfo {
		l.infoLog.Printf(format, v...)
	}
}

func (l *Logger) Warnf(format string, v ...any) {
	if l.level <= LevelWarn {
		l.warnLog.Printf(format, v...)
	}
}

func (l *Logger) Errorf(format string, v ...any) {
	l.errorLog.Printf(format, v...)
}

var (
	defaultMu sync.RWMutex
	std       = New(os.Stderr, LevelInfo)
)

// Default returns the process-wide logger.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()

	return std
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	std = l
}

// Helper functions writing to the default logger.

func Debugf(format string, v ...any) { Default().Debugf(format, v...) }

func Infof(format string, v ...any) { Default().Infof(format, v...) }

func Warnf(format string, v ...any) { Default().Warnf(format, v...) }

func Errorf(format string, v ...any) { Default().Errorf(format, v...) }
