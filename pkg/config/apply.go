package config

import (
	"strconv"
	"strings"

	"github.com/wayneeseguin/autolog/pkg/settings"
	"github.com/wayneeseguin/autolog/pkg/types"
)

// Well-known configuration paths. The first segment is matched case-insensitively.
const (
	PathLogLevel            = "/LogLevel"
	PathDebugLevels         = "/DebugLevels"
	PathAutoLogSQLThreshold = "/AutoLogSQLThreshold"
	PathMonitoredSettings   = "/MonitoredSettings"
	PathIsPassword          = "/IsPassword"
)

// ApplyToSnapshot derives a new snapshot from base using the values in c.
//
// Every section present in c replaces the corresponding snapshot field as a
// whole; absent sections keep the value from base. Any invalid value rejects
// the whole configuration so a half-valid file is never applied.
func ApplyToSnapshot(base *settings.Snapshot, c Configuration, source string) (*settings.Snapshot, error) {
	if base == nil {
		base = settings.Default()
	}
	next := base

	if p, ok := c.Lookup(PathLogLevel); ok {
		level, valid := types.ParseLevel(p.Value)
		if !valid {
			return nil, NewParseError(source, "Invalid log level", nil).
				WithContext("path", PathLogLevel).
				WithContext("value", p.Value)
		}
		next = next.WithLogLevel(level)
	}

	if children, ok := c.Children(PathDebugLevels); ok {
		levels := make(map[string]int, len(children))
		for category, p := range children {
			level, valid := types.ParseLevel(p.Value)
			if !valid {
				return nil, NewParseError(source, "Invalid debug level", nil).
					WithContext("path", PathDebugLevels+"/"+category).
					WithContext("value", p.Value)
			}
			levels[category] = level
		}
		next = next.WithDebugLevels(levels)
	}

	if p, ok := c.Lookup(PathAutoLogSQLThreshold); ok {
		seconds, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
		if err != nil || !settings.ValidThreshold(seconds) {
			return nil, NewParseError(source, "Invalid AutoLogSQLThreshold", err).
				WithContext("path", PathAutoLogSQLThreshold).
				WithContext("value", p.Value)
		}
		next = next.WithAutoLogSQLThreshold(seconds)
	}

	if children, ok := c.Children(PathMonitoredSettings); ok {
		monitored := make(map[string]string, len(children))
		for key, p := range children {
			monitored[key] = p.Value
		}
		next = next.WithMonitoredSettings(monitored)
	}

	if children, ok := c.Children(PathIsPassword); ok {
		flags := make(map[string]bool, len(children))
		for key, p := range children {
			flag, err := strconv.ParseBool(strings.TrimSpace(p.Value))
			if err != nil {
				return nil, NewParseError(source, "Invalid IsPassword flag", err).
					WithContext("path", PathIsPassword+"/"+key).
					WithContext("value", p.Value)
			}
			flags[key] = flag
		}
		next = next.WithIsPassword(flags)
	}

	return next, nil
}
