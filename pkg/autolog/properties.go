package autolog

import (
	"sort"

	"github.com/wayneeseguin/autolog/pkg/settings"
	"github.com/wayneeseguin/autolog/pkg/types"
)

// MaskToken replaces the value of any key flagged in IsPassword.
const MaskToken = "[REDACTED]"

// Snapshot returns the settings currently in effect. The snapshot never
// changes; call again to observe later updates.
func (l *Logger) Snapshot() *settings.Snapshot {
	return l.store.Get()
}

// LogLevel returns the global threshold.
func (l *Logger) LogLevel() int {
	return l.store.Get().LogLevel()
}

// SetLogLevel sets the global threshold. Records below it are discarded.
//
// Parameters:
//   - level: one of LevelTrace through LevelFatal
//
// Example:
//
//	logger.SetLogLevel(types.LevelWarn) // warnings and above
func (l *Logger) SetLogLevel(level int) error {
	if !types.ValidLevel(level) {
		return NewInvalidConfigError("LogLevel", level)
	}
	l.coord.Update(func(s *settings.Snapshot) *settings.Snapshot {
		return s.WithLogLevel(level)
	})
	return nil
}

// DebugLevels returns a copy of the per-category thresholds.
func (l *Logger) DebugLevels() map[string]int {
	return l.store.Get().DebugLevels()
}

// SetDebugLevels replaces every per-category threshold. Categories not in
// levels are filtered by the global threshold only.
func (l *Logger) SetDebugLevels(levels map[string]int) error {
	for category, level := range levels {
		if !types.ValidLevel(level) {
			return NewInvalidConfigError("DebugLevels/"+category, level)
		}
	}
	l.coord.Update(func(s *settings.Snapshot) *settings.Snapshot {
		return s.WithDebugLevels(levels)
	})
	return nil
}

// AutoLogSQLThreshold returns the slow data-access threshold in seconds.
func (l *Logger) AutoLogSQLThreshold() float64 {
	return l.store.Get().AutoLogSQLThreshold()
}

// SetAutoLogSQLThreshold sets the slow data-access threshold in seconds.
// Zero disables escalation.
func (l *Logger) SetAutoLogSQLThreshold(seconds float64) error {
	if !settings.ValidThreshold(seconds) {
		return NewInvalidConfigError("AutoLogSQLThreshold", seconds)
	}
	l.coord.Update(func(s *settings.Snapshot) *settings.Snapshot {
		return s.WithAutoLogSQLThreshold(seconds)
	})
	return nil
}

// MonitoredSettings returns a copy of the host application settings.
func (l *Logger) MonitoredSettings() map[string]string {
	return l.store.Get().MonitoredSettings()
}

// MonitoredSetting returns one host application setting.
func (l *Logger) MonitoredSetting(key string) (string, bool) {
	return l.store.Get().MonitoredSetting(key)
}

// SetMonitoredSettings replaces the host application settings.
func (l *Logger) SetMonitoredSettings(m map[string]string) {
	l.coord.Update(func(s *settings.Snapshot) *settings.Snapshot {
		return s.WithMonitoredSettings(m)
	})
}

// IsPassword returns a copy of the redaction flags.
func (l *Logger) IsPassword() map[string]bool {
	return l.store.Get().IsPassword()
}

// SetIsPassword replaces the redaction flags. Keys match case-insensitively.
func (l *Logger) SetIsPassword(flags map[string]bool) {
	l.coord.Update(func(s *settings.Snapshot) *settings.Snapshot {
		return s.WithIsPassword(flags)
	})
}

// LogMonitoredSettings writes every monitored setting at Info, one record
// per key in key order. Values of password keys are masked.
func (l *Logger) LogMonitoredSettings() {
	snap := l.store.Get()
	if !snap.Enabled(types.LevelInfo, "") {
		return
	}
	m := snap.MonitoredSettings()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		l.emit(types.LevelInfo, "MonitoredSetting "+k+"="+redact(snap, k, m[k]))
	}
}

func redact(snap *settings.Snapshot, key, value string) string {
	if snap.IsPasswordKey(key) {
		return MaskToken
	}
	return value
}
