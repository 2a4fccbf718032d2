package autolog

import (
	"errors"
	"fmt"
	"os"
	"time"

	goerrors "github.com/agilira/go-errors"

	"github.com/wayneeseguin/autolog/pkg/config"
)

// Error codes for logger operations
const (
	ErrCodeConfigNotSet     = "AUTOLOG_1001"
	ErrCodeMonitoringActive = "AUTOLOG_1002"
	ErrCodeInvalidConfig    = "AUTOLOG_1003"
	ErrCodeLoggerClosed     = "AUTOLOG_1004"
)

// NewConfigNotSetError is returned when monitoring is enabled before a
// configuration file has been set. The logger stays usable.
func NewConfigNotSetError() *goerrors.Error {
	return goerrors.New(ErrCodeConfigNotSet, "ConfigFile not set before enabling monitoring").
		WithUserMessage("Set ConfigFile before enabling Monitoring").
		WithSeverity("error")
}

// NewMonitoringActiveError is returned when ConfigFile is changed while the
// current file is being monitored.
func NewMonitoringActiveError(current, requested string) *goerrors.Error {
	return goerrors.New(ErrCodeMonitoringActive, "ConfigFile cannot change while monitoring").
		WithUserMessage("Disable Monitoring before changing ConfigFile").
		WithContext("config_file", current).
		WithContext("requested", requested).
		WithSeverity("error")
}

// NewInvalidConfigError reports an invalid logger setting.
func NewInvalidConfigError(field string, value interface{}) *goerrors.Error {
	return goerrors.New(ErrCodeInvalidConfig, "Invalid logger configuration").
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity("error")
}

// NewLoggerClosedError is returned when monitoring is enabled on a closed logger.
func NewLoggerClosedError() *goerrors.Error {
	return goerrors.New(ErrCodeLoggerClosed, "Logger is closed").
		WithSeverity("warning")
}

// HasCode reports whether err, or any error it wraps, carries code.
func HasCode(err error, code string) bool {
	return config.HasCode(err, code)
}

// LogError describes a fault inside the logger itself: a rejected
// configuration, an unwatchable file or a failing sink. None of these are
// returned to logging callers; they go to the ErrorHandler instead.
type LogError struct {
	Operation string    // reload, watch, sink, subscriber
	Code      string    // error code when the cause carries one
	Message   string    // Human readable error message
	Err       error     // The underlying error
	Timestamp time.Time // When the error occurred
}

// Error implements the error interface
func (e LogError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying error
func (e LogError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives logger faults.
type ErrorHandler func(err LogError)

// SilentErrorHandler discards all errors (used in tests)
var SilentErrorHandler ErrorHandler = func(LogError) {}

// StderrErrorHandler writes errors to stderr
var StderrErrorHandler ErrorHandler = func(err LogError) {
	fmt.Fprintf(os.Stderr, "autolog: %s\n", err.Error())
}

func newLogError(op, message string, err error) LogError {
	le := LogError{
		Operation: op,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
	var coded *goerrors.Error
	if errors.As(err, &coded) {
		le.Code = string(coded.Code)
	}
	return le
}
