// Package settings holds the immutable configuration snapshot consulted on
// every log call, and the store that publishes it.
//
// A Snapshot is never modified after construction. Every change produces a
// new Snapshot through one of the With* methods, which copy the receiver and
// replace a single field wholesale. Maps handed to or returned from a Snapshot
// are always copies, so a caller can never reach into a published value.
package settings

import (
	"math"
	"strings"

	"github.com/wayneeseguin/autolog/pkg/types"
)

// Snapshot is one consistent view of the logger configuration.
type Snapshot struct {
	logLevel          int
	debugLevels       map[string]int
	sqlThreshold      float64
	monitoredSettings map[string]string
	isPassword        map[string]bool

	// lowercase key -> flag, built once per snapshot for case-insensitive lookups
	passwordIndex map[string]bool
}

// Default returns the snapshot used before any configuration is applied.
func Default() *Snapshot {
	return NewSnapshot(types.LevelInfo, nil, 0, nil, nil)
}

// NewSnapshot builds a snapshot from the given values. The maps are copied.
func NewSnapshot(logLevel int, debugLevels map[string]int, sqlThreshold float64,
	monitored map[string]string, isPassword map[string]bool) *Snapshot {
	s := &Snapshot{
		logLevel:          logLevel,
		debugLevels:       copyInts(debugLevels),
		sqlThreshold:      sqlThreshold,
		monitoredSettings: copyStrings(monitored),
		isPassword:        copyBools(isPassword),
	}
	s.passwordIndex = indexPasswords(s.isPassword)
	return s
}

// LogLevel returns the global threshold.
func (s *Snapshot) LogLevel() int { return s.logLevel }

// AutoLogSQLThreshold returns the slow data-access threshold in seconds.
// Zero or a negative value disables escalation.
func (s *Snapshot) AutoLogSQLThreshold() float64 { return s.sqlThreshold }

// DebugLevels returns a copy of the per-category thresholds.
func (s *Snapshot) DebugLevels() map[string]int { return copyInts(s.debugLevels) }

// DebugLevel returns the threshold for a category and whether one is configured.
func (s *Snapshot) DebugLevel(category string) (int, bool) {
	l, ok := s.debugLevels[category]
	return l, ok
}

// MonitoredSettings returns a copy of the monitored key/value pairs.
func (s *Snapshot) MonitoredSettings() map[string]string { return copyStrings(s.monitoredSettings) }

// MonitoredSetting returns a single monitored value.
func (s *Snapshot) MonitoredSetting(key string) (string, bool) {
	v, ok := s.monitoredSettings[key]
	return v, ok
}

// IsPassword returns a copy of the redaction flags.
func (s *Snapshot) IsPassword() map[string]bool { return copyBools(s.isPassword) }

// IsPasswordKey reports whether values for key must be masked.
// The match is case-insensitive.
func (s *Snapshot) IsPasswordKey(key string) bool {
	return s.passwordIndex[strings.ToLower(key)]
}

// Enabled reports whether a record at level passes the global threshold and,
// when category is non-empty and configured, the category threshold as well.
func (s *Snapshot) Enabled(level int, category string) bool {
	if level < s.logLevel {
		return false
	}
	if category == "" {
		return true
	}
	if cl, ok := s.debugLevels[category]; ok && level < cl {
		return false
	}
	return true
}

// WithLogLevel returns a copy with a new global threshold.
func (s *Snapshot) WithLogLevel(level int) *Snapshot {
	c := s.clone()
	c.logLevel = level
	return c
}

// WithDebugLevels returns a copy with the category map replaced.
func (s *Snapshot) WithDebugLevels(levels map[string]int) *Snapshot {
	c := s.clone()
	c.debugLevels = copyInts(levels)
	return c
}

// ValidThreshold reports whether seconds is usable as AutoLogSQLThreshold:
// finite and not negative.
func ValidThreshold(seconds float64) bool {
	return seconds >= 0 && !math.IsInf(seconds, 1)
}

// WithAutoLogSQLThreshold returns a copy with a new slow-call threshold.
func (s *Snapshot) WithAutoLogSQLThreshold(seconds float64) *Snapshot {
	c := s.clone()
	c.sqlThreshold = seconds
	return c
}

// WithMonitoredSettings returns a copy with the monitored map replaced.
func (s *Snapshot) WithMonitoredSettings(m map[string]string) *Snapshot {
	c := s.clone()
	c.monitoredSettings = copyStrings(m)
	return c
}

// WithIsPassword returns a copy with the redaction flags replaced.
func (s *Snapshot) WithIsPassword(m map[string]bool) *Snapshot {
	c := s.clone()
	c.isPassword = copyBools(m)
	c.passwordIndex = indexPasswords(c.isPassword)
	return c
}

// Equal reports whether two snapshots hold the same values.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	if s.logLevel != o.logLevel || s.sqlThreshold != o.sqlThreshold {
		return false
	}
	if len(s.debugLevels) != len(o.debugLevels) ||
		len(s.monitoredSettings) != len(o.monitoredSettings) ||
		len(s.isPassword) != len(o.isPassword) {
		return false
	}
	for k, v := range s.debugLevels {
		if ov, ok := o.debugLevels[k]; !ok || ov != v {
			return false
		}
	}
	for k, v := range s.monitoredSettings {
		if ov, ok := o.monitoredSettings[k]; !ok || ov != v {
			return false
		}
	}
	for k, v := range s.isPassword {
		if ov, ok := o.isPassword[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// clone shares the maps with the receiver; callers replace, never mutate them.
func (s *Snapshot) clone() *Snapshot {
	c := *s
	return &c
}

func indexPasswords(m map[string]bool) map[string]bool {
	idx := make(map[string]bool, len(m))
	for k, v := range m {
		lk := strings.ToLower(k)
		// a true flag under any spelling wins
		idx[lk] = idx[lk] || v
	}
	return idx
}

func copyInts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyBools(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
