// Package formatters renders log records as bytes for sinks that write to
// files, sockets or message subjects.
package formatters

import (
	"strings"
	"time"

	"github.com/wayneeseguin/autolog/pkg/types"
)

// Formatter renders a single record. Output ends with a newline.
type Formatter interface {
	Format(rec types.Record) ([]byte, error)
}

// FormatOptions controls the output format
type FormatOptions struct {
	TimestampFormat string
	IncludeLevel    bool
	IncludeTime     bool
	LevelFormat     LevelFormat
	TimeZone        *time.Location
	IncludeHost     bool // Whether to include hostname field
	IncludePID      bool // Whether to include process id field
}

// LevelFormat defines level format options
type LevelFormat int

const (
	// LevelFormatNameUpper formats levels as uppercase names (DEBUG, INFO, etc)
	LevelFormatNameUpper LevelFormat = iota
	// LevelFormatNameLower formats levels as lowercase names
	LevelFormatNameLower
	// LevelFormatSymbol formats levels as single-character symbols
	LevelFormatSymbol
)

// DefaultFormatOptions returns default formatting options
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		TimestampFormat: time.RFC3339Nano,
		IncludeLevel:    true,
		IncludeTime:     true,
		LevelFormat:     LevelFormatNameUpper,
		TimeZone:        time.UTC,
	}
}

func (o FormatOptions) formatTimestamp(t time.Time) string {
	loc := o.TimeZone
	if loc == nil {
		loc = time.UTC
	}
	layout := o.TimestampFormat
	if layout == "" {
		layout = time.RFC3339Nano
	}
	return t.In(loc).Format(layout)
}

func (o FormatOptions) formatLevel(level int) string {
	name := types.LevelName(level)
	switch o.LevelFormat {
	case LevelFormatNameLower:
		return strings.ToLower(name)
	case LevelFormatSymbol:
		return name[:1]
	}
	return name
}
