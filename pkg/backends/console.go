package backends

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/wayneeseguin/autolog/pkg/types"
)

// ConsoleSink writes human readable, optionally colored lines through zerolog.
type ConsoleSink struct {
	logger zerolog.Logger
}

// NewConsoleSink writes to out.
func NewConsoleSink(out io.Writer, noColor bool) *ConsoleSink {
	w := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
	return &ConsoleSink{logger: zerolog.New(w).Level(zerolog.TraceLevel)}
}

// NewZerologSink forwards records to an existing zerolog logger.
func NewZerologSink(logger zerolog.Logger) *ConsoleSink {
	return &ConsoleSink{logger: logger}
}

// Write implements types.Sink. Fatal records do not exit.
func (s *ConsoleSink) Write(level int, message string, timestamp time.Time) {
	s.logger.WithLevel(zerologLevel(level)).
		Time(zerolog.TimestampFieldName, timestamp).
		Msg(message)
}

func zerologLevel(level int) zerolog.Level {
	switch level {
	case types.LevelTrace:
		return zerolog.TraceLevel
	case types.LevelDebug:
		return zerolog.DebugLevel
	case types.LevelInfo:
		return zerolog.InfoLevel
	case types.LevelWarn:
		return zerolog.WarnLevel
	case types.LevelError:
		return zerolog.ErrorLevel
	case types.LevelFatal:
		return zerolog.FatalLevel
	}
	return zerolog.NoLevel
}
