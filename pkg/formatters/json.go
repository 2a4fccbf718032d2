package formatters

import (
	"encoding/json"
	"os"

	"github.com/wayneeseguin/autolog/pkg/types"
)

var (
	hostname, _ = os.Hostname()
	pid         = os.Getpid()
)

// JSONFormatter formats records as line-delimited JSON objects.
type JSONFormatter struct {
	Options FormatOptions
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	opts := DefaultFormatOptions()
	opts.LevelFormat = LevelFormatNameLower
	return &JSONFormatter{
		Options: opts,
	}
}

type jsonRecord struct {
	Timestamp string `json:"timestamp,omitempty"`
	Level     string `json:"level,omitempty"`
	Message   string `json:"message"`
	Host      string `json:"host,omitempty"`
	PID       int    `json:"pid,omitempty"`
}

// Format formats a record as JSON
func (f *JSONFormatter) Format(rec types.Record) ([]byte, error) {
	out := jsonRecord{Message: rec.Message}
	if f.Options.IncludeTime {
		out.Timestamp = f.Options.formatTimestamp(rec.Timestamp)
	}
	if f.Options.IncludeLevel {
		out.Level = f.Options.formatLevel(rec.Level)
	}
	if f.Options.IncludeHost {
		out.Host = hostname
	}
	if f.Options.IncludePID {
		out.PID = pid
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}

	// Add newline for line-delimited JSON
	return append(data, '\n'), nil
}
