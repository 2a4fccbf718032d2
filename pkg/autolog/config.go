package autolog

import (
	"time"

	"github.com/wayneeseguin/autolog/pkg/config"
	"github.com/wayneeseguin/autolog/pkg/settings"
	"github.com/wayneeseguin/autolog/pkg/types"
	"github.com/wayneeseguin/autolog/pkg/watch"
)

// Config contains all construction-time options for a Logger.
// The settings fields (Level through IsPassword) only seed the first
// snapshot; afterwards they change through the property setters or a reload.
type Config struct {
	// Initial settings
	Level               int               // Minimum log level
	DebugLevels         map[string]int    // Per-category thresholds
	AutoLogSQLThreshold float64           // Slow data-access threshold in seconds, 0 disables
	MonitoredSettings   map[string]string // Host application settings
	IsPassword          map[string]bool   // Keys whose values are always masked

	// Output
	Sinks []types.Sink // Destinations; a stderr console sink when empty

	// Configuration source
	ConfigFile string        // File watched while monitoring
	Monitoring bool          // Start monitoring from the constructor
	Source     config.Source // Loaded on reload instead of ConfigFile itself

	// Watching
	Quiescence   time.Duration // Quiet period that ends a burst of file changes
	PollInterval time.Duration // How often the file is checked

	// Error handling
	ErrorHandler ErrorHandler // Receives logger faults; nil writes them to the sinks at Error

	// Clock overrides both record timestamps and elapsed time measurement.
	Clock func() time.Time
}

// DefaultConfig returns a Config with sensible defaults:
//   - Info level logging
//   - no slow-call escalation
//   - 100ms coalescing of file changes, polled every 250ms
//
// Example:
//
//	cfg := autolog.DefaultConfig()
//	cfg.ConfigFile = "/etc/app/autolog.yaml"
//	cfg.Monitoring = true
//	logger, err := autolog.NewWithConfig(cfg)
func DefaultConfig() *Config {
	wo := watch.DefaultOptions()
	return &Config{
		Level:        types.LevelInfo,
		Quiescence:   wo.Quiescence,
		PollInterval: wo.PollInterval,
	}
}

// Validate checks the configuration and fills in defaults for zero durations.
func (c *Config) Validate() error {
	if !types.ValidLevel(c.Level) {
		return NewInvalidConfigError("Level", c.Level)
	}
	for category, level := range c.DebugLevels {
		if !types.ValidLevel(level) {
			return NewInvalidConfigError("DebugLevels/"+category, level)
		}
	}
	if !settings.ValidThreshold(c.AutoLogSQLThreshold) {
		return NewInvalidConfigError("AutoLogSQLThreshold", c.AutoLogSQLThreshold)
	}
	if c.Monitoring && c.ConfigFile == "" {
		return NewConfigNotSetError()
	}

	wo := watch.DefaultOptions()
	if c.Quiescence <= 0 {
		c.Quiescence = wo.Quiescence
	}
	if c.PollInterval <= 0 {
		c.PollInterval = wo.PollInterval
	}
	return nil
}
