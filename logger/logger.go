package logger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// noopFunc is a reusable no-op function to avoid allocations
var noopFunc = func() {}

// Trace returns a function that logs operation duration when called.
// Returns a no-op function when TRACE level is disabled.
// Usage: defer logger.Trace("operation")()
func Trace(name string) func() {
	if !Enabled(LogLevelTrace) {
		return noopFunc
	}
	start := time.Now()
	return func() {
		current().logWithLevel(LogLevelTrace, "%s: %v", name, time.Since(start))
	}
}

// DefaultMaxLines is the number of lines kept in the log file by default
const DefaultMaxLines = 5000

// LogLevel represents the logging level
type LogLevel int32

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string into a LogLevel. Unknown names mean INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LogLevelTrace
	case "DEBUG":
		return LogLevelDebug
	case "INFO":
		return LogLevelInfo
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LimitedLogger writes leveled lines to a file and trims it to the newest
// maxLines lines once it grows past that.
type LimitedLogger struct {
	file      *os.File
	maxLines  int
	lineCount int
	level     atomic.Int32
	mutex     sync.Mutex
}

// defaultLogger is used before the global logger is installed
var defaultLogger = newLogger(os.Stderr, LogLevelInfo, DefaultMaxLines)

var globalLogger atomic.Pointer[LimitedLogger]

func current() *LimitedLogger {
	if ll := globalLogger.Load(); ll != nil {
		return ll
	}
	return defaultLogger
}

func newLogger(file *os.File, level LogLevel, maxLines int) *LimitedLogger {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	ll := &LimitedLogger{
		file:     file,
		maxLines: maxLines,
	}
	ll.level.Store(int32(level))
	return ll
}

// NewLimitedLogger creates a LimitedLogger over file and installs it as the
// global logger.
func NewLimitedLogger(file *os.File, level LogLevel, maxLines int) *LimitedLogger {
	ll := newLogger(file, level, maxLines)

	// Count existing lines in the file
	ll.countExistingLines()
	globalLogger.Store(ll)
	return ll
}

// Open appends to the log file at path, creating it if needed.
// Caller must Close the returned logger.
func Open(path string, level LogLevel) (*LimitedLogger, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return NewLimitedLogger(f, level, DefaultMaxLines), nil
}

// SetLevel sets the logging level
func (ll *LimitedLogger) SetLevel(level LogLevel) {
	ll.level.Store(int32(level))
}

// SetGlobalLevel sets the logging level on the global logger
func SetGlobalLevel(level LogLevel) {
	current().SetLevel(level)
}

// Enabled reports whether the global logger writes messages at level.
func Enabled(level LogLevel) bool {
	return current().shouldLog(level)
}

func (ll *LimitedLogger) shouldLog(level LogLevel) bool {
	return int32(level) >= ll.level.Load()
}

func (ll *LimitedLogger) logWithLevel(level LogLevel, format string, v ...any) {
	if !ll.shouldLog(level) {
		return
	}
	msg := fmt.Sprintf("%s [%s] %s\n", time.Now().Format("2006/01/02 15:04:05"), level.String(), fmt.Sprintf(format, v...))
	ll.Write([]byte(msg))
}

func (ll *LimitedLogger) Debug(format string, v ...any) {
	ll.logWithLevel(LogLevelDebug, format, v...)
}

func (ll *LimitedLogger) Info(format string, v ...any) {
	ll.logWithLevel(LogLevelInfo, format, v...)
}

func (ll *LimitedLogger) Warn(format string, v ...any) {
	ll.logWithLevel(LogLevelWarn, format, v...)
}

func (ll *LimitedLogger) Error(format string, v ...any) {
	ll.logWithLevel(LogLevelError, format, v...)
}

// Fatal logs an error message and exits with code 1
func (ll *LimitedLogger) Fatal(format string, v ...any) {
	ll.logWithLevel(LogLevelError, format, v...)
	os.Exit(1)
}

// Package-level logging functions that use the global logger (or stderr if not installed)

func Debug(format string, v ...any) { current().Debug(format, v...) }

func Info(format string, v ...any) { current().Info(format, v...) }

func Warn(format string, v ...any) { current().Warn(format, v...) }

func Error(format string, v ...any) { current().Error(format, v...) }

func Fatal(format string, v ...any) { current().Fatal(format, v...) }

// countExistingLines counts the number of lines in the current log file
func (ll *LimitedLogger) countExistingLines() {
	ll.mutex.Lock()
	defer ll.mutex.Unlock()

	if _, err := ll.file.Seek(0, 0); err != nil {
		return
	}
	scanner := bufio.NewScanner(ll.file)

	count := 0
	for scanner.Scan() {
		count++
	}
	ll.lineCount = count

	// Seek back to end of file for appending
	ll.file.Seek(0, 2)
}

// Write implements io.Writer so the standard log package can share the file.
func (ll *LimitedLogger) Write(p []byte) (n int, err error) {
	ll.mutex.Lock()
	defer ll.mutex.Unlock()

	n, err = ll.file.Write(p)
	if err != nil {
		return n, err
	}

	ll.lineCount += strings.Count(string(p), "\n")
	if ll.lineCount > ll.maxLines {
		ll.rotateLogFile()
	}

	return n, err
}

// rotateLogFile trims the log file to keep only the last maxLines lines
func (ll *LimitedLogger) rotateLogFile() {
	if _, err := ll.file.Seek(0, 0); err != nil {
		return
	}
	scanner := bufio.NewScanner(ll.file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) > ll.maxLines {
		lines = lines[len(lines)-ll.maxLines:]
	}

	ll.file.Truncate(0)
	ll.file.Seek(0, 0)

	w := bufio.NewWriter(ll.file)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	w.Flush()

	ll.lineCount = len(lines)
}

// Close uninstalls the logger if it is global and closes the underlying file.
func (ll *LimitedLogger) Close() error {
	globalLogger.CompareAndSwap(ll, nil)
	return ll.file.Close()
}
