package watch

import (
	goerrors "github.com/agilira/go-errors"
)

// Error codes for configuration watching
const (
	ErrCodeWatch          = "WATCH_1201"
	ErrCodeWatcherRunning = "WATCH_1202"
)

// NewWatchError reports that the watched path could not be observed. The
// watcher keeps retrying after reporting it.
func NewWatchError(path, message string, cause error) *goerrors.Error {
	if cause != nil {
		return goerrors.Wrap(cause, ErrCodeWatch, message).
			WithContext("path", path).
			WithSeverity("warning")
	}
	return goerrors.New(ErrCodeWatch, message).
		WithContext("path", path).
		WithSeverity("warning")
}

// NewWatcherRunningError is returned when Start is called on a running watcher.
func NewWatcherRunningError(path string) *goerrors.Error {
	return goerrors.New(ErrCodeWatcherRunning, "Watcher is already running").
		WithUserMessage("Stop the watcher before starting it again").
		WithContext("path", path).
		WithSeverity("error")
}
