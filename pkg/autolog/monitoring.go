package autolog

import (
	"context"
	"time"

	"github.com/wayneeseguin/autolog/pkg/config"
	"github.com/wayneeseguin/autolog/pkg/reload"
	"github.com/wayneeseguin/autolog/pkg/settings"
)

// ConfigFileChangedEvent is delivered to OnConfigFileChanged subscribers
// once per successfully applied reload.
type ConfigFileChangedEvent struct {
	Source   string             // file path or source name that was applied
	Previous *settings.Snapshot // settings before the reload
	Current  *settings.Snapshot // settings now in effect
	Time     time.Time
}

// ConfigFile returns the path watched while monitoring.
func (l *Logger) ConfigFile() string {
	l.monMu.Lock()
	defer l.monMu.Unlock()
	return l.configFile
}

// SetConfigFile changes the path watched while monitoring. The path can only
// change while monitoring is off.
//
// Example:
//
//	if err := logger.SetConfigFile("/etc/app/autolog.yaml"); err != nil {
//	    // monitoring is on; disable it first
//	}
func (l *Logger) SetConfigFile(path string) error {
	l.monMu.Lock()
	defer l.monMu.Unlock()
	if l.monitoring {
		if path == l.configFile {
			return nil
		}
		return NewMonitoringActiveError(l.configFile, path)
	}
	l.configFile = path
	return nil
}

// Monitoring reports whether the configuration file is being watched.
func (l *Logger) Monitoring() bool {
	l.monMu.Lock()
	defer l.monMu.Unlock()
	return l.monitoring
}

// SetMonitoring starts or stops watching ConfigFile.
//
// Turning monitoring on requires a ConfigFile. The file is loaded once
// before the call returns; a file that cannot be loaded is reported through
// the error handler and monitoring starts anyway, picking the file up as
// soon as it becomes valid. Turning it on again is a no-op.
//
// Turning monitoring off always succeeds. A reload already in progress is
// allowed to finish; no reload starts afterwards.
func (l *Logger) SetMonitoring(on bool) error {
	l.monMu.Lock()
	defer l.monMu.Unlock()
	if on {
		return l.startMonitoringLocked()
	}
	l.stopMonitoringLocked()
	return nil
}

func (l *Logger) startMonitoringLocked() error {
	if l.monitoring {
		return nil
	}
	if l.closed.Load() {
		return NewLoggerClosedError()
	}
	if l.configFile == "" {
		return NewConfigNotSetError()
	}

	src := l.source
	if src == nil {
		src = config.NewFileSource(l.configFile)
	}
	l.coord.SetSource(src)

	ctx, cancel := context.WithCancel(context.Background())
	// failure already reported; the watcher retries on the next change
	_ = l.coord.OnSignal(ctx)

	events, err := l.watcher.Start(ctx, l.configFile)
	if err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.coord.Run(ctx, events)
	}()

	l.runCancel = cancel
	l.runDone = done
	l.monitoring = true
	return nil
}

func (l *Logger) stopMonitoringLocked() {
	if !l.monitoring {
		return
	}
	l.watcher.Stop()
	l.runCancel()
	<-l.runDone
	l.runCancel = nil
	l.runDone = nil
	l.monitoring = false
}

// OnConfigFileChanged registers fn to run after every applied reload and
// returns a function that unregisters it. fn runs on its own goroutine after
// the new settings are visible to log calls.
func (l *Logger) OnConfigFileChanged(fn func(ConfigFileChangedEvent)) func() {
	return l.coord.Subscribe(func(ev reload.Event) {
		fn(ConfigFileChangedEvent{
			Source:   ev.Source,
			Previous: ev.Previous,
			Current:  ev.Current,
			Time:     ev.Time,
		})
	})
}

// LoadDefaults applies the defaults a configuration server holds for the
// client/application pair. Sections the server does not return are left as
// they are. A successful load raises ConfigFileChanged.
func (l *Logger) LoadDefaults(ctx context.Context, fetcher config.Fetcher, client, application string) error {
	if fetcher == nil {
		return NewInvalidConfigError("Fetcher", nil)
	}
	return l.coord.Apply(ctx, &config.FetcherSource{
		Fetcher:     fetcher,
		Client:      client,
		Application: application,
	})
}

// Reload reloads the configuration source immediately, outside the file
// watcher. It fails with ConfigNotSet when no ConfigFile or source is set.
func (l *Logger) Reload(ctx context.Context) error {
	l.monMu.Lock()
	src := l.source
	path := l.configFile
	l.monMu.Unlock()

	if src == nil {
		if path == "" {
			return NewConfigNotSetError()
		}
		src = config.NewFileSource(path)
	}
	return l.coord.Apply(ctx, src)
}
