package autolog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"

	"github.com/wayneeseguin/autolog/internal/metrics"
	"github.com/wayneeseguin/autolog/pkg/backends"
	"github.com/wayneeseguin/autolog/pkg/config"
	"github.com/wayneeseguin/autolog/pkg/reload"
	"github.com/wayneeseguin/autolog/pkg/settings"
	"github.com/wayneeseguin/autolog/pkg/types"
	"github.com/wayneeseguin/autolog/pkg/watch"
)

// Metrics is a point-in-time copy of the logger counters.
type Metrics = metrics.Metrics

// Logger writes records to its sinks according to the current settings
// snapshot and owns the reload machinery that replaces that snapshot.
//
// Every method is safe for concurrent use. Log calls read the snapshot
// without locking; setters and reloads are serialised by the coordinator.
type Logger struct {
	store   *settings.Store
	coord   *reload.Coordinator
	metrics *metrics.Collector

	sinksMu sync.RWMutex
	sinks   []types.Sink

	errorHandler ErrorHandler
	clock        func() time.Time

	// monitoring state, guarded by monMu
	monMu      sync.Mutex
	configFile string
	monitoring bool
	source     config.Source // nil reads configFile
	watcher    *watch.Watcher
	runCancel  func()
	runDone    chan struct{}

	closed atomic.Bool
}

// New creates a Logger from functional options.
//
// Example:
//
//	logger, err := autolog.New(
//		autolog.WithLevel(types.LevelDebug),
//		autolog.WithSink(backends.NewConsoleSink(os.Stdout, false)),
//		autolog.WithConfigFile("/etc/app/autolog.yaml"),
//		autolog.WithMonitoring(),
//	)
func New(opts ...Option) (*Logger, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Logger from a Config. A nil config uses DefaultConfig.
func NewWithConfig(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Logger{
		store: settings.NewStore(settings.NewSnapshot(
			cfg.Level, cfg.DebugLevels, cfg.AutoLogSQLThreshold, cfg.MonitoredSettings, cfg.IsPassword,
		)),
		metrics:    metrics.NewCollector(),
		clock:      cfg.Clock,
		configFile: cfg.ConfigFile,
		source:     cfg.Source,
	}

	l.sinks = append([]types.Sink(nil), cfg.Sinks...)
	if len(l.sinks) == 0 {
		l.sinks = []types.Sink{backends.NewConsoleSink(os.Stderr, false)}
	}

	l.errorHandler = cfg.ErrorHandler
	if l.errorHandler == nil {
		l.errorHandler = l.writeDiagnostic
	}

	l.coord = reload.NewCoordinator(l.store, nil, reload.Options{
		Metrics: l.metrics,
		// the coordinator counts its own failures
		ErrorHandler: func(err error) {
			l.errorHandler(newLogError("reload", "Configuration reload failed, keeping last known good configuration", err))
		},
	})

	l.watcher = watch.New(watch.Options{
		PollInterval: cfg.PollInterval,
		CacheTTL:     cfg.PollInterval / 2,
		Quiescence:   cfg.Quiescence,
		ErrorHandler: func(err error) {
			l.handleError("watch", "Configuration file watch error", err)
		},
	})

	if cfg.Monitoring {
		if err := l.SetMonitoring(true); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// AddSink adds a destination for subsequent records.
func (l *Logger) AddSink(sink types.Sink) {
	if sink == nil {
		return
	}
	l.sinksMu.Lock()
	defer l.sinksMu.Unlock()
	next := make([]types.Sink, 0, len(l.sinks)+1)
	next = append(next, l.sinks...)
	l.sinks = append(next, sink)
}

// SetSinks replaces all destinations. Replaced sinks are not closed.
func (l *Logger) SetSinks(sinks ...types.Sink) {
	next := make([]types.Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			next = append(next, s)
		}
	}
	l.sinksMu.Lock()
	l.sinks = next
	l.sinksMu.Unlock()
}

func (l *Logger) sinkList() []types.Sink {
	l.sinksMu.RLock()
	defer l.sinksMu.RUnlock()
	return l.sinks
}

// emit writes to every sink without consulting the level.
func (l *Logger) emit(level int, message string) {
	if l.closed.Load() {
		return
	}
	ts := l.timestamp()
	for _, sink := range l.sinkList() {
		l.writeSink(sink, level, message, ts)
	}
	l.metrics.TrackMessageLogged(level)
}

func (l *Logger) writeSink(sink types.Sink, level int, message string, ts time.Time) {
	defer func() {
		if r := recover(); r != nil {
			l.metrics.TrackMessageDropped()
			l.handleError("sink", "Sink panicked while writing", fmt.Errorf("%v", r))
		}
	}()
	start := time.Now()
	sink.Write(level, message, ts)
	l.metrics.TrackWrite(time.Since(start))
}

func (l *Logger) timestamp() time.Time {
	if l.clock != nil {
		return l.clock()
	}
	return timecache.CachedTime()
}

func (l *Logger) now() time.Time {
	if l.clock != nil {
		return l.clock()
	}
	return time.Now()
}

func (l *Logger) handleError(op, message string, err error) {
	l.metrics.TrackError(op)
	l.errorHandler(newLogError(op, message, err))
}

// writeDiagnostic is the default ErrorHandler. A sink that fails here is
// ignored so that reporting cannot recurse.
func (l *Logger) writeDiagnostic(e LogError) {
	sinks := l.sinkList()
	if len(sinks) == 0 || l.closed.Load() {
		StderrErrorHandler(e)
		return
	}
	msg := "autolog: " + e.Error()
	ts := l.timestamp()
	for _, sink := range sinks {
		func() {
			defer func() { _ = recover() }()
			sink.Write(types.LevelError, msg, ts)
		}()
	}
}

// Metrics returns a copy of the logger counters.
func (l *Logger) Metrics() Metrics {
	return l.metrics.GetMetrics(len(l.sinkList()))
}

// ReloadStats returns reload counters and the most recent reload failure.
func (l *Logger) ReloadStats() reload.Stats {
	return l.coord.Stats()
}

// Flush flushes every sink that buffers output.
func (l *Logger) Flush() error {
	var first error
	for _, sink := range l.sinkList() {
		if f, ok := sink.(types.Flusher); ok {
			if err := f.Flush(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Close stops monitoring and change notifications, then flushes and closes
// the sinks. Records logged afterwards are discarded. Close may be called
// from a ConfigFileChanged handler; handlers already running are not waited
// for.
func (l *Logger) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	_ = l.SetMonitoring(false)
	l.coord.Close()

	var first error
	for _, sink := range l.sinkList() {
		var err error
		switch s := sink.(type) {
		case io.Closer:
			err = s.Close()
		case types.Flusher:
			err = s.Flush()
		}
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}
