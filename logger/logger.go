// logger/logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelTags = map[LogLevel]string{
	DEBUG: "[DEBUG]",
	INFO:  "[INFO] ",
	WARN:  "[WARN] ",
	ERROR: "[ERROR]",
}

var levelColors = map[LogLevel]string{
	DEBUG: colorGray,
	INFO:  colorReset,
	WARN:  colorYellow,
	ERROR: colorRed,
}

type Logger struct {
	mu       sync.Mutex
	console  io.Writer // colored output, usually stdout
	file     *os.File  // plain output, optional
	minLevel LogLevel
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// ensureInitialized creates a console-only logger on first use
func ensureInitialized() {
	once.Do(func() {
		if defaultLogger == nil {
			defaultLogger = &Logger{console: os.Stdout, minLevel: DEBUG}
		}
	})
}

// Init configures the default logger. If filename is non-empty, lines are
// appended to that file without color codes. If console is false, only the
// file output is used.
func Init(filename string, console bool) error {
	l := &Logger{minLevel: DEBUG}

	if filename != "" {
		file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = file
	}
	if console {
		l.console = os.Stdout
	}
	if l.file == nil && l.console == nil {
		return fmt.Errorf("no output destination specified")
	}

	if defaultLogger != nil && defaultLogger.file != nil {
		defaultLogger.file.Close()
	}
	defaultLogger = l
	return nil
}

// SetLevel sets the minimum level; messages below it are discarded.
func SetLevel(level LogLevel) {
	ensureInitialized()
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.minLevel = level
}

// Close closes the log file if one is open
func Close() {
	if defaultLogger == nil {
		return
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	if defaultLogger.file != nil {
		defaultLogger.file.Close()
		defaultLogger.file = nil
	}
}

func (l *Logger) output(level LogLevel, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.minLevel {
		return
	}

	// caller is three frames up: output -> logf/logln -> exported func
	_, fileName, line, ok := runtime.Caller(3)
	if !ok {
		fileName, line = "???", 0
	}
	stamp := time.Now().Format("2006/01/02 15:04:05")
	location := fmt.Sprintf("%s:%d", filepath.Base(fileName), line)

	if l.console != nil {
		fmt.Fprintf(l.console, "%s%s%s %s %s: %s\n",
			levelColors[level], levelTags[level], colorReset, stamp, location, msg)
	}
	if l.file != nil {
		fmt.Fprintf(l.file, "%s %s %s: %s\n", levelTags[level], stamp, location, msg)
	}
}

func logln(level LogLevel, v ...interface{}) {
	ensureInitialized()
	defaultLogger.output(level, fmt.Sprint(v...))
}

func logf(level LogLevel, format string, v ...interface{}) {
	ensureInitialized()
	defaultLogger.output(level, fmt.Sprintf(format, v...))
}

// Debug logs a debug message
func Debug(v ...interface{}) { logln(DEBUG, v...) }

// Debugf logs a formatted debug message
func Debugf(format string, v ...interface{}) { logf(DEBUG, format, v...) }

// Info logs an info message
func Info(v ...interface{}) { logln(INFO, v...) }

// Infof logs a formatted info message
func Infof(format string, v ...interface{}) { logf(INFO, format, v...) }

// Warn logs a warning message
func Warn(v ...interface{}) { logln(WARN, v...) }

// Warnf logs a formatted warning message
func Warnf(format string, v ...interface{}) { logf(WARN, format, v...) }

// Error logs an error message
func Error(v ...interface{}) { logln(ERROR, v...) }

// Errorf logs a formatted error message
func Errorf(format string, v ...interface{}) { logf(ERROR, format, v...) }

// Fatal logs an error message and exits the program
func Fatal(v ...interface{}) {
	logln(ERROR, v...)
	os.Exit(1)
}

// Fatalf logs a formatted error message and exits the program
func Fatalf(format string, v ...interface{}) {
	logf(ERROR, format, v...)
	os.Exit(1)
}
