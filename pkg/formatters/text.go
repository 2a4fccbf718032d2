package formatters

import (
	"strings"

	"github.com/wayneeseguin/autolog/internal/buffer"
	"github.com/wayneeseguin/autolog/pkg/types"
)

// TextFormatter formats records as human-readable lines:
//
//	[2024-01-01T12:00:00Z] [INFO] message
type TextFormatter struct {
	Options FormatOptions
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		Options: DefaultFormatOptions(),
	}
}

// Format formats a record as text
func (f *TextFormatter) Format(rec types.Record) ([]byte, error) {
	b := buffer.Get()

	if f.Options.IncludeTime {
		b.WriteString("[")
		b.WriteString(f.Options.formatTimestamp(rec.Timestamp))
		b.WriteString("] ")
	}

	if f.Options.IncludeLevel {
		b.WriteString("[")
		b.WriteString(f.Options.formatLevel(rec.Level))
		b.WriteString("] ")
	}

	if f.Options.IncludeHost {
		b.WriteString("host=")
		b.WriteString(hostname)
		b.WriteString(" ")
	}

	b.WriteString(rec.Message)

	if !strings.HasSuffix(rec.Message, "\n") {
		b.WriteString("\n")
	}

	out := make([]byte, b.Len())
	copy(out, b.Bytes())
	buffer.Put(b)
	return out, nil
}
