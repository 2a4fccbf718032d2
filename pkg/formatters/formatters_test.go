package formatters

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/wayneeseguin/autolog/pkg/types"
)

var testTime = time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

func TestTextFormatter_Format(t *testing.T) {
	tests := []struct {
		name    string
		rec     types.Record
		options func(*FormatOptions)
		want    string
	}{
		{
			name: "basic message",
			rec:  types.Record{Level: types.LevelInfo, Message: "test message", Timestamp: testTime},
			want: "[2023-01-01T12:00:00Z] [INFO] test message\n",
		},
		{
			name:    "no time",
			rec:     types.Record{Level: types.LevelWarn, Message: "slow", Timestamp: testTime},
			options: func(o *FormatOptions) { o.IncludeTime = false },
			want:    "[WARN] slow\n",
		},
		{
			name: "lowercase level only",
			rec:  types.Record{Level: types.LevelFatal, Message: "down", Timestamp: testTime},
			options: func(o *FormatOptions) {
				o.IncludeTime = false
				o.LevelFormat = LevelFormatNameLower
			},
			want: "[fatal] down\n",
		},
		{
			name: "symbol level",
			rec:  types.Record{Level: types.LevelDebug, Message: "x", Timestamp: testTime},
			options: func(o *FormatOptions) {
				o.IncludeTime = false
				o.LevelFormat = LevelFormatSymbol
			},
			want: "[D] x\n",
		},
		{
			name: "existing newline kept",
			rec:  types.Record{Level: types.LevelError, Message: "stack\n", Timestamp: testTime},
			options: func(o *FormatOptions) {
				o.IncludeTime = false
				o.IncludeLevel = false
			},
			want: "stack\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewTextFormatter()
			if tt.options != nil {
				tt.options(&f.Options)
			}
			got, err := f.Format(tt.rec)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	f := NewJSONFormatter()
	f.Options.IncludePID = true

	got, err := f.Format(types.Record{Level: types.LevelWarn, Message: `say "hi"`, Timestamp: testTime})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.HasSuffix(string(got), "\n") {
		t.Errorf("expected trailing newline, got %q", got)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["level"] != "warn" {
		t.Errorf("level = %v, want warn", decoded["level"])
	}
	if decoded["message"] != `say "hi"` {
		t.Errorf("message = %v", decoded["message"])
	}
	if decoded["timestamp"] != "2023-01-01T12:00:00Z" {
		t.Errorf("timestamp = %v", decoded["timestamp"])
	}
	if _, ok := decoded["pid"]; !ok {
		t.Error("expected pid field")
	}
	if _, ok := decoded["host"]; ok {
		t.Error("host should be omitted by default")
	}
}

func TestFactory(t *testing.T) {
	f := NewFactory()

	names := f.ListFormatters()
	if len(names) != 2 || names[0] != FormatJSON || names[1] != FormatText {
		t.Errorf("ListFormatters() = %v", names)
	}

	if _, err := f.CreateFormatter(FormatText); err != nil {
		t.Errorf("CreateFormatter(text) error = %v", err)
	}
	if _, err := f.CreateFormatter("xml"); err == nil {
		t.Error("expected error for unregistered formatter")
	}
	if err := f.Register("", nil); err == nil {
		t.Error("expected error for empty name")
	}
	if err := f.Register("custom", nil); err == nil {
		t.Error("expected error for nil constructor")
	}

	err := f.Register("custom", func() (Formatter, error) { return NewTextFormatter(), nil })
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := f.CreateFormatter("custom"); err != nil {
		t.Errorf("CreateFormatter(custom) error = %v", err)
	}
}
