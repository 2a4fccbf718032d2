package backends

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wayneeseguin/autolog/pkg/types"
)

// ZapSink forwards records to a zap logger. Level filtering has already
// happened in autolog, so the zap core should accept every level it is
// expected to see.
type ZapSink struct {
	logger *zap.Logger
	closer func() error
}

// NewZapSink wraps an existing logger. Fatal records are written without
// terminating the process.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger.WithOptions(zap.WithFatalHook(continueOnFatal{}))}
}

// RollingConfig configures a size-rotated JSON log file.
type RollingConfig struct {
	Filename   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	// Console tees a human readable copy to stdout.
	Console bool
}

// NewRollingZapSink writes JSON lines to a lumberjack-rotated file.
func NewRollingZapSink(cfg RollingConfig) (*ZapSink, error) {
	if cfg.Filename == "" {
		return nil, fmt.Errorf("rolling log file name is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Filename), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	var core zapcore.Core = zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	if cfg.Console {
		core = zapcore.NewTee(core, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			zapcore.DebugLevel,
		))
	}

	sink := NewZapSink(zap.New(core))
	sink.closer = w.Close
	return sink, nil
}

// Write implements types.Sink.
func (s *ZapSink) Write(level int, message string, timestamp time.Time) {
	lvl, trace := zapLevel(level)
	ce := s.logger.Check(lvl, message)
	if ce == nil {
		return
	}
	ce.Time = timestamp
	if trace {
		ce.Write(zap.Bool("trace", true))
		return
	}
	ce.Write()
}

// Flush implements types.Flusher.
func (s *ZapSink) Flush() error {
	return s.logger.Sync()
}

// Close syncs the logger and closes the rolling file, if any.
func (s *ZapSink) Close() error {
	err := s.logger.Sync()
	if s.closer != nil {
		if cerr := s.closer(); cerr != nil {
			return cerr
		}
	}
	return err
}

// zap has no trace level; trace records go out at debug with a marker field.
func zapLevel(level int) (zapcore.Level, bool) {
	switch level {
	case types.LevelTrace:
		return zapcore.DebugLevel, true
	case types.LevelDebug:
		return zapcore.DebugLevel, false
	case types.LevelInfo:
		return zapcore.InfoLevel, false
	case types.LevelWarn:
		return zapcore.WarnLevel, false
	case types.LevelError:
		return zapcore.ErrorLevel, false
	case types.LevelFatal:
		return zapcore.FatalLevel, false
	}
	if level < types.LevelTrace {
		return zapcore.DebugLevel, true
	}
	return zapcore.FatalLevel, false
}

type continueOnFatal struct{}

func (continueOnFatal) OnWrite(*zapcore.CheckedEntry, []zapcore.Field) {}
