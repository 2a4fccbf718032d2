package autolog

import (
	"time"

	"github.com/wayneeseguin/autolog/pkg/config"
	"github.com/wayneeseguin/autolog/pkg/settings"
	"github.com/wayneeseguin/autolog/pkg/types"
)

// Option is a functional option for configuring a Logger
type Option func(*Config) error

// WithSink adds a destination. May be given more than once.
func WithSink(sink types.Sink) Option {
	return func(c *Config) error {
		if sink == nil {
			return NewInvalidConfigError("Sink", nil)
		}
		c.Sinks = append(c.Sinks, sink)
		return nil
	}
}

// WithLevel sets the initial log level
func WithLevel(level int) Option {
	return func(c *Config) error {
		if !types.ValidLevel(level) {
			return NewInvalidConfigError("Level", level)
		}
		c.Level = level
		return nil
	}
}

// WithDebugLevels sets the initial per-category thresholds
func WithDebugLevels(levels map[string]int) Option {
	return func(c *Config) error {
		c.DebugLevels = levels
		return nil
	}
}

// WithAutoLogSQLThreshold sets the initial slow data-access threshold in seconds
func WithAutoLogSQLThreshold(seconds float64) Option {
	return func(c *Config) error {
		if !settings.ValidThreshold(seconds) {
			return NewInvalidConfigError("AutoLogSQLThreshold", seconds)
		}
		c.AutoLogSQLThreshold = seconds
		return nil
	}
}

// WithIsPassword sets the initial redaction flags
func WithIsPassword(flags map[string]bool) Option {
	return func(c *Config) error {
		c.IsPassword = flags
		return nil
	}
}

// WithConfigFile sets the file watched when monitoring is enabled
func WithConfigFile(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return NewInvalidConfigError("ConfigFile", path)
		}
		c.ConfigFile = path
		return nil
	}
}

// WithMonitoring starts monitoring ConfigFile from the constructor
func WithMonitoring() Option {
	return func(c *Config) error {
		c.Monitoring = true
		return nil
	}
}

// WithSource loads configuration from source on every reload. The
// ConfigFile is still what is watched for changes.
func WithSource(source config.Source) Option {
	return func(c *Config) error {
		c.Source = source
		return nil
	}
}

// WithQuiescence sets the quiet period that ends a burst of file changes
func WithQuiescence(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return NewInvalidConfigError("Quiescence", d)
		}
		c.Quiescence = d
		return nil
	}
}

// WithPollInterval sets how often the configuration file is checked
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return NewInvalidConfigError("PollInterval", d)
		}
		c.PollInterval = d
		return nil
	}
}

// WithErrorHandler sets the handler for logger faults
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *Config) error {
		c.ErrorHandler = handler
		return nil
	}
}

// WithClock replaces time.Now for timestamps and elapsed time. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Config) error {
		c.Clock = now
		return nil
	}
}
