package types

import (
	"strconv"
	"strings"
	"time"
)

// Log levels, ascending by severity. A record is written when its level is
// greater than or equal to the configured threshold.
const (
	LevelTrace = 0
	LevelDebug = 1
	LevelInfo  = 2
	LevelWarn  = 3
	LevelError = 4
	LevelFatal = 5
)

// Sink receives log records that passed level filtering.
// Implementations must be safe for concurrent use and should not block
// the caller for long; wrap slow sinks in an asynchronous buffer.
type Sink interface {
	Write(level int, message string, timestamp time.Time)
}

// SinkFunc adapts an ordinary function to the Sink interface.
type SinkFunc func(level int, message string, timestamp time.Time)

// Write implements Sink.
func (f SinkFunc) Write(level int, message string, timestamp time.Time) {
	f(level, message, timestamp)
}

// Flusher is implemented by sinks that buffer output.
type Flusher interface {
	Flush() error
}

// Record is a single log record as seen by byte-oriented sinks and formatters.
type Record struct {
	Level     int
	Message   string
	Timestamp time.Time
}

// LevelName returns the upper-case name for a level.
func LevelName(level int) string {
	switch level {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "LEVEL(" + strconv.Itoa(level) + ")"
	}
}

// ValidLevel reports whether level is one of the named levels.
func ValidLevel(level int) bool {
	return level >= LevelTrace && level <= LevelFatal
}

// ParseLevel converts a level name or number into a level.
//
// Accepted names are trace, debug, info, warn/warning, error and fatal in any
// case; numeric strings are accepted as-is when they fall in the valid range.
func ParseLevel(s string) (int, bool) {
	l := strings.ToLower(strings.TrimSpace(s))
	switch l {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "fatal":
		return LevelFatal, true
	}
	n, err := strconv.Atoi(l)
	if err != nil || !ValidLevel(n) {
		return 0, false
	}
	return n, true
}
