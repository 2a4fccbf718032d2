package autolog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	testhelpers "github.com/wayneeseguin/autolog/internal/testing"
	"github.com/wayneeseguin/autolog/pkg/backends"
	"github.com/wayneeseguin/autolog/pkg/config"
	"github.com/wayneeseguin/autolog/pkg/types"
)

const monitoredYAML = `
LogLevel: debug
AutoLogSQLThreshold: 5.0
DebugLevels:
  Test: 1
MonitoredSettings:
  Server: db01
  DbPassword: s3cret
IsPassword:
  DbPassword: true
`

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestSetMonitoringRequiresConfigFile(t *testing.T) {
	logger, _, _ := newTestLogger(t)

	err := logger.SetMonitoring(true)
	if !HasCode(err, ErrCodeConfigNotSet) {
		t.Fatalf("Expected %s, got %v", ErrCodeConfigNotSet, err)
	}
	if logger.Monitoring() {
		t.Error("Monitoring should stay off")
	}

	// the logger is still usable
	logger.Info("still logging")

	path := filepath.Join(t.TempDir(), "autolog.yaml")
	writeConfig(t, path, monitoredYAML)
	if err := logger.SetConfigFile(path); err != nil {
		t.Fatalf("SetConfigFile failed: %v", err)
	}
	if err := logger.SetMonitoring(true); err != nil {
		t.Fatalf("SetMonitoring failed: %v", err)
	}
	if !logger.Monitoring() {
		t.Error("Monitoring should be on")
	}
	if err := logger.SetMonitoring(true); err != nil {
		t.Errorf("Enabling twice should be a no-op, got %v", err)
	}
}

func TestEnablingMonitoringLoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autolog.yaml")
	writeConfig(t, path, monitoredYAML)

	logger, _, rec := newTestLogger(t, WithConfigFile(path), WithMonitoring())

	if logger.LogLevel() != types.LevelDebug {
		t.Errorf("LogLevel = %d, want debug", logger.LogLevel())
	}
	if logger.AutoLogSQLThreshold() != 5.0 {
		t.Errorf("AutoLogSQLThreshold = %v", logger.AutoLogSQLThreshold())
	}
	if v, _ := logger.MonitoredSetting("Server"); v != "db01" {
		t.Errorf("Server = %q", v)
	}
	if lvl := logger.DebugLevels()["Test"]; lvl != 1 {
		t.Errorf("DebugLevels[Test] = %d", lvl)
	}
	if rec.Len() != 0 {
		t.Errorf("Unexpected errors: %v", rec.Last())
	}
}

func TestConfigFileLockedWhileMonitoring(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autolog.yaml")
	writeConfig(t, path, monitoredYAML)
	logger, _, _ := newTestLogger(t, WithConfigFile(path), WithMonitoring())

	err := logger.SetConfigFile(filepath.Join(dir, "other.yaml"))
	if !HasCode(err, ErrCodeMonitoringActive) {
		t.Fatalf("Expected %s, got %v", ErrCodeMonitoringActive, err)
	}
	if logger.ConfigFile() != path {
		t.Errorf("ConfigFile changed to %q", logger.ConfigFile())
	}

	if err := logger.SetMonitoring(false); err != nil {
		t.Fatalf("SetMonitoring(false) failed: %v", err)
	}
	if err := logger.SetMonitoring(false); err != nil {
		t.Fatalf("Disabling twice failed: %v", err)
	}
	if err := logger.SetConfigFile(filepath.Join(dir, "other.yaml")); err != nil {
		t.Errorf("SetConfigFile after stop failed: %v", err)
	}
}

func TestMalformedReloadKeepsLastKnownGood(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autolog.yaml")
	writeConfig(t, path, monitoredYAML)
	logger, _, rec := newTestLogger(t, WithConfigFile(path))

	if err := logger.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	before := logger.Snapshot()

	writeConfig(t, path, "LogLevel: [unclosed\n")
	err := logger.Reload(context.Background())
	if !HasCode(err, config.ErrCodeParse) {
		t.Fatalf("Expected parse error, got %v", err)
	}
	if logger.Snapshot() != before {
		t.Error("Snapshot replaced by a malformed file")
	}
	if rec.Len() != 1 || rec.Last().Operation != "reload" {
		t.Errorf("Expected one reload error, got %d", rec.Len())
	}

	writeConfig(t, path, "LogLevel: loud\n")
	if err := logger.Reload(context.Background()); err == nil {
		t.Fatal("Expected invalid level to be rejected")
	}
	if logger.LogLevel() != types.LevelDebug {
		t.Errorf("LogLevel = %d after rejected file", logger.LogLevel())
	}
	if stats := logger.ReloadStats(); stats.Reloads != 1 || stats.Failures != 2 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestReloadFailureIsLoggedByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	sink := backends.NewMemorySink(0)
	logger, err := New(WithSink(sink), WithConfigFile(path))
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()

	if err := logger.Reload(context.Background()); err == nil {
		t.Fatal("Expected missing file to fail")
	}

	records := sink.Records()
	if len(records) != 1 {
		t.Fatalf("Expected one diagnostic record, got %v", sink.Messages())
	}
	if records[0].Level != types.LevelError || !strings.HasPrefix(records[0].Message, "autolog: reload:") {
		t.Errorf("Unexpected diagnostic %+v", records[0])
	}
}

func TestConfigFileChangedFiresAfterPublish(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autolog.yaml")
	writeConfig(t, path, "LogLevel: warn\n")
	logger, _, _ := newTestLogger(t, WithConfigFile(path))

	seen := make(chan int, 1)
	unsubscribe := logger.OnConfigFileChanged(func(ev ConfigFileChangedEvent) {
		// the event must never arrive ahead of the settings it announces
		if ev.Current.LogLevel() != logger.LogLevel() {
			seen <- -1
			return
		}
		seen <- ev.Current.LogLevel()
	})

	if err := logger.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case lvl := <-seen:
		if lvl != types.LevelWarn {
			t.Errorf("Subscriber saw level %d", lvl)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Subscriber not called")
	}

	unsubscribe()
	writeConfig(t, path, "LogLevel: error\n")
	if err := logger.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case <-seen:
		t.Error("Unsubscribed handler was called")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMonitoringPicksUpChanges(t *testing.T) {
	testhelpers.SkipIfUnit(t, "polls the file system")
	path := filepath.Join(t.TempDir(), "autolog.yaml")
	writeConfig(t, path, monitoredYAML)

	logger, sink, _ := newTestLogger(t,
		WithConfigFile(path),
		WithMonitoring(),
		WithPollInterval(20*time.Millisecond),
		WithQuiescence(20*time.Millisecond),
	)

	changed := make(chan ConfigFileChangedEvent, 4)
	logger.OnConfigFileChanged(func(ev ConfigFileChangedEvent) { changed <- ev })

	// make sure the rewrite lands on a different modification time
	time.Sleep(50 * time.Millisecond)
	writeConfig(t, path, strings.Replace(monitoredYAML, "LogLevel: debug", "LogLevel: error  ", 1))

	if !waitFor(t, 5*time.Second, func() bool { return logger.LogLevel() == types.LevelError }) {
		t.Fatalf("Change not applied, LogLevel = %d", logger.LogLevel())
	}
	select {
	case ev := <-changed:
		if ev.Source != path || ev.Current.LogLevel() != types.LevelError {
			t.Errorf("Unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Error("ConfigFileChanged not raised")
	}

	logger.Debug("suppressed")
	if sink.Count("suppressed") != 0 {
		t.Error("Debug record written after level raised to error")
	}

	if err := logger.SetMonitoring(false); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, path, "LogLevel: trace\n")
	time.Sleep(200 * time.Millisecond)
	if logger.LogLevel() != types.LevelError {
		t.Error("Change applied after monitoring stopped")
	}
}

func TestLoadDefaultsFromFetcher(t *testing.T) {
	logger, _, _ := newTestLogger(t)

	fetcher := config.FetcherFunc(func(ctx context.Context, client, app string) (map[string]config.Parameter, error) {
		if client != "acme" || app != "billing" {
			return nil, errors.New("unknown application")
		}
		return map[string]config.Parameter{
			"/LogLevel":                 {Value: "warn"},
			"/MonitoredSettings/Region": {Value: "eu-west-1"},
			"/MonitoredSettings/ApiKey": {Value: "k-123"},
			"/IsPassword/ApiKey":        {Value: "true"},
		}, nil
	})

	if err := logger.LoadDefaults(context.Background(), fetcher, "acme", "billing"); err != nil {
		t.Fatalf("LoadDefaults failed: %v", err)
	}
	if logger.LogLevel() != types.LevelWarn {
		t.Errorf("LogLevel = %d", logger.LogLevel())
	}
	if !logger.Snapshot().IsPasswordKey("apikey") {
		t.Error("IsPassword not applied")
	}

	err := logger.LoadDefaults(context.Background(), fetcher, "acme", "unknown")
	if !HasCode(err, config.ErrCodeFetch) {
		t.Errorf("Expected fetch error, got %v", err)
	}
	if logger.LogLevel() != types.LevelWarn {
		t.Error("Failed fetch changed settings")
	}
}

func TestReloadWithoutConfigFile(t *testing.T) {
	logger, _, _ := newTestLogger(t)
	if err := logger.Reload(context.Background()); !HasCode(err, ErrCodeConfigNotSet) {
		t.Errorf("Expected %s, got %v", ErrCodeConfigNotSet, err)
	}
}

func TestCloseFromConfigFileChangedHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autolog.yaml")
	writeConfig(t, path, "LogLevel: warn\n")
	logger, _, _ := newTestLogger(t, WithConfigFile(path))

	done := make(chan error, 1)
	logger.OnConfigFileChanged(func(ConfigFileChangedEvent) {
		done <- logger.Close()
	})

	if err := logger.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Close returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close from a change handler did not return")
	}

	// no further notifications once closed
	notified := make(chan struct{}, 1)
	logger.OnConfigFileChanged(func(ConfigFileChangedEvent) { notified <- struct{}{} })
	writeConfig(t, path, "LogLevel: error\n")
	_ = logger.Reload(context.Background())
	select {
	case <-notified:
		t.Error("Handler called after Close")
	case <-time.After(100 * time.Millisecond):
	}
}
