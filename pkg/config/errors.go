package config

import (
	"errors"

	goerrors "github.com/agilira/go-errors"
)

// Error codes for configuration loading
const (
	ErrCodeParse       = "CONFIG_1101"
	ErrCodeInvalidPath = "CONFIG_1102"
	ErrCodeFetch       = "CONFIG_1103"
)

// NewParseError reports configuration content that could not be turned into
// settings. The previously applied configuration stays in effect.
func NewParseError(source, message string, cause error) *goerrors.Error {
	if cause != nil {
		return goerrors.Wrap(cause, ErrCodeParse, message).
			WithUserMessage("The configuration could not be parsed; the last good configuration is still active").
			WithContext("source", source).
			WithSeverity("error")
	}
	return goerrors.New(ErrCodeParse, message).
		WithUserMessage("The configuration could not be parsed; the last good configuration is still active").
		WithContext("source", source).
		WithSeverity("error")
}

// NewInvalidPathError reports a key path that is not of the form /a/b/c.
func NewInvalidPathError(path, reason string) *goerrors.Error {
	return goerrors.New(ErrCodeInvalidPath, "Invalid configuration path").
		WithUserMessage("Configuration paths must start with '/', have no trailing '/' and no empty segments").
		WithContext("path", path).
		WithContext("reason", reason).
		WithSeverity("error")
}

// NewFetchError reports a failure of the configuration server collaborator.
func NewFetchError(client, application string, cause error) *goerrors.Error {
	return goerrors.Wrap(cause, ErrCodeFetch, "Failed to fetch configuration defaults").
		WithContext("client", client).
		WithContext("application", application).
		WithSeverity("error")
}

// HasCode reports whether err carries the given structured error code.
func HasCode(err error, code string) bool {
	var coded *goerrors.Error
	if errors.As(err, &coded) {
		return coded.Code == goerrors.ErrorCode(code)
	}
	return false
}
