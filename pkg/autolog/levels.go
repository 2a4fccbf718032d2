package autolog

import (
	"fmt"

	"github.com/wayneeseguin/autolog/pkg/types"
)

// Enabled reports whether a record at level in category would be written.
// An empty category checks the global threshold only.
func (l *Logger) Enabled(level int, category string) bool {
	return l.store.Get().Enabled(level, category)
}

// Log writes message at level if level is at or above LogLevel.
func (l *Logger) Log(level int, message string) {
	if !l.store.Get().Enabled(level, "") {
		return
	}
	l.emit(level, message)
}

// LogCategory writes message at level if level passes both the global
// threshold and the threshold configured for category.
//
// Parameters:
//   - category: debug category name, as used in DebugLevels
//   - level: record level
//   - message: record text
//
// Example:
//
//	logger.SetDebugLevels(map[string]int{"Cache": types.LevelWarn})
//	logger.LogCategory("Cache", types.LevelDebug, "miss") // dropped
func (l *Logger) LogCategory(category string, level int, message string) {
	if !l.store.Get().Enabled(level, category) {
		return
	}
	l.emit(level, message)
}

func (l *Logger) logArgs(level int, args []interface{}) {
	if !l.store.Get().Enabled(level, "") {
		return
	}
	l.emit(level, fmt.Sprint(args...))
}

func (l *Logger) logFormat(level int, format string, args []interface{}) {
	if !l.store.Get().Enabled(level, "") {
		return
	}
	l.emit(level, fmt.Sprintf(format, args...))
}

// Trace logs at trace level
func (l *Logger) Trace(args ...interface{}) { l.logArgs(types.LevelTrace, args) }

// Debug logs at debug level
func (l *Logger) Debug(args ...interface{}) { l.logArgs(types.LevelDebug, args) }

// Info logs at info level
func (l *Logger) Info(args ...interface{}) { l.logArgs(types.LevelInfo, args) }

// Warn logs at warn level
func (l *Logger) Warn(args ...interface{}) { l.logArgs(types.LevelWarn, args) }

// Error logs at error level
func (l *Logger) Error(args ...interface{}) { l.logArgs(types.LevelError, args) }

// Fatal logs at fatal level. The process keeps running; exiting is left to
// the caller.
func (l *Logger) Fatal(args ...interface{}) { l.logArgs(types.LevelFatal, args) }

// Tracef logs a formatted message at trace level
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.logFormat(types.LevelTrace, format, args)
}

// Debugf logs a formatted message at debug level
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logFormat(types.LevelDebug, format, args)
}

// Infof logs a formatted message at info level
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logFormat(types.LevelInfo, format, args)
}

// Warnf logs a formatted message at warn level
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logFormat(types.LevelWarn, format, args)
}

// Errorf logs a formatted message at error level
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logFormat(types.LevelError, format, args)
}

// Fatalf logs a formatted message at fatal level without exiting
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.logFormat(types.LevelFatal, format, args)
}

// CategoryLogger writes records filtered by one debug category.
type CategoryLogger struct {
	logger   *Logger
	category string
}

// Category returns a logger whose records are filtered by the threshold
// configured for name in DebugLevels, in addition to LogLevel. The
// threshold is looked up on every call, so reloads apply immediately.
func (l *Logger) Category(name string) *CategoryLogger {
	return &CategoryLogger{logger: l, category: name}
}

// Name returns the category name.
func (c *CategoryLogger) Name() string { return c.category }

// Enabled reports whether a record at level would be written.
func (c *CategoryLogger) Enabled(level int) bool {
	return c.logger.Enabled(level, c.category)
}

// Log writes message at level.
func (c *CategoryLogger) Log(level int, message string) {
	c.logger.LogCategory(c.category, level, message)
}

// Logf writes a formatted message at level.
func (c *CategoryLogger) Logf(level int, format string, args ...interface{}) {
	if !c.Enabled(level) {
		return
	}
	c.logger.emit(level, fmt.Sprintf(format, args...))
}

// Trace logs at trace level
func (c *CategoryLogger) Trace(args ...interface{}) { c.logArgs(types.LevelTrace, args) }

// Debug logs at debug level
func (c *CategoryLogger) Debug(args ...interface{}) { c.logArgs(types.LevelDebug, args) }

// Info logs at info level
func (c *CategoryLogger) Info(args ...interface{}) { c.logArgs(types.LevelInfo, args) }

// Warn logs at warn level
func (c *CategoryLogger) Warn(args ...interface{}) { c.logArgs(types.LevelWarn, args) }

// Error logs at error level
func (c *CategoryLogger) Error(args ...interface{}) { c.logArgs(types.LevelError, args) }

// Fatal logs at fatal level without exiting
func (c *CategoryLogger) Fatal(args ...interface{}) { c.logArgs(types.LevelFatal, args) }

// Tracef logs a formatted message at trace level
func (c *CategoryLogger) Tracef(format string, args ...interface{}) {
	c.Logf(types.LevelTrace, format, args...)
}

// Debugf logs a formatted message at debug level
func (c *CategoryLogger) Debugf(format string, args ...interface{}) {
	c.Logf(types.LevelDebug, format, args...)
}

// Infof logs a formatted message at info level
func (c *CategoryLogger) Infof(format string, args ...interface{}) {
	c.Logf(types.LevelInfo, format, args...)
}

// Warnf logs a formatted message at warn level
func (c *CategoryLogger) Warnf(format string, args ...interface{}) {
	c.Logf(types.LevelWarn, format, args...)
}

// Errorf logs a formatted message at error level
func (c *CategoryLogger) Errorf(format string, args ...interface{}) {
	c.Logf(types.LevelError, format, args...)
}

// Fatalf logs a formatted message at fatal level without exiting
func (c *CategoryLogger) Fatalf(format string, args ...interface{}) {
	c.Logf(types.LevelFatal, format, args...)
}

func (c *CategoryLogger) logArgs(level int, args []interface{}) {
	if !c.Enabled(level) {
		return
	}
	c.logger.emit(level, fmt.Sprint(args...))
}
